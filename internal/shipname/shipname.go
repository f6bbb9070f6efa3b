// Package shipname generates and parses model identifiers.
//
// A model identifier has the form "NNNNNN-name", where NNNNNN is the model generation zero-padded
// to 6 digits, and name is a randomly chosen human-readable name, e.g. "000017-brave-frigate-042".
// The generation is the real uniqueness key: the name only makes the identifiers easier to talk about.
package shipname

import (
	"fmt"
	"math/rand/v2"
	"path/filepath"
	"regexp"
	"strconv"

	"github.com/gomlx/exceptions"
	"github.com/janpfeifer/rlloop/internal/generics"
)

var (
	adjectives = []string{
		"ancient", "bold", "brave", "bright", "calm", "crimson", "daring", "distant",
		"eager", "fearless", "fierce", "gallant", "gentle", "golden", "grand", "hidden",
		"humble", "iron", "jolly", "keen", "lone", "loyal", "lucky", "mighty",
		"misty", "noble", "patient", "proud", "quiet", "rapid", "restless", "royal",
		"rugged", "scarlet", "serene", "silent", "silver", "sleek", "steady", "stormy",
		"swift", "tidal", "valiant", "vigilant", "wandering", "wild", "wise", "young",
	}
	ships = []string{
		"argosy", "barque", "brig", "brigantine", "caravel", "carrack", "catamaran", "clipper",
		"corvette", "cruiser", "cutter", "dhow", "dinghy", "dory", "dreadnought", "felucca",
		"ferry", "frigate", "galleon", "galley", "gondola", "hulk", "junk", "ketch",
		"longship", "lugger", "manowar", "monitor", "pinnace", "piroque", "punt", "raft",
		"schooner", "sloop", "smack", "steamer", "tartane", "tender", "trawler", "trireme",
		"tug", "whaler", "xebec", "yacht", "yawl", "zulu", "skiff", "sampan",
	}

	// modelNumPattern matches the numeric prefix of a model identifier.
	modelNumPattern = regexp.MustCompile(`^(\d{6,})-`)

	// modelIDPattern matches a full model identifier, optionally followed by an extension.
	modelIDPattern = regexp.MustCompile(`^(\d{6,})-(\w+(?:-\w+)*)(?:\.|$)`)
)

// ParseError is returned when a file name doesn't have the shape of a model identifier.
type ParseError struct {
	Filename string
	Reason   string
}

// Error implements error.
func (e *ParseError) Error() string {
	return fmt.Sprintf("invalid model file name %q: %s", e.Filename, e.Reason)
}

// randomName returns a human-readable random name, e.g. "swift-clipper-007".
func randomName() string {
	return fmt.Sprintf("%s-%s-%03d",
		adjectives[rand.IntN(len(adjectives))],
		ships[rand.IntN(len(ships))],
		rand.IntN(1000))
}

// Generate returns a new model identifier for the given generation, with a freshly drawn random name.
//
// It panics if generation is negative.
func Generate(generation int) string {
	if generation < 0 {
		exceptions.Panicf("shipname.Generate: invalid negative generation %d", generation)
	}
	return fmt.Sprintf("%06d-%s", generation, randomName())
}

// GenerateUnused is like Generate, but draws new names until one is found that is not in used.
// used holds bare names (the part after the generation number), see DetectModelName.
func GenerateUnused(generation int, used generics.Set[string]) string {
	for {
		id := Generate(generation)
		name, _ := DetectModelName(id)
		if !used.Has(name) {
			return id
		}
	}
}

// DetectModelNum returns the generation number encoded in the given model file name.
// Any directory component is ignored.
func DetectModelNum(filename string) (int, error) {
	base := filepath.Base(filename)
	match := modelNumPattern.FindStringSubmatch(base)
	if match == nil {
		return 0, &ParseError{Filename: filename, Reason: "missing 6-digit generation prefix"}
	}
	num, err := strconv.Atoi(match[1])
	if err != nil {
		return 0, &ParseError{Filename: filename, Reason: err.Error()}
	}
	return num, nil
}

// DetectModelName returns the name part of the given model file name: what comes after the generation
// prefix and before the extension (if any).
func DetectModelName(filename string) (string, error) {
	base := filepath.Base(filename)
	match := modelIDPattern.FindStringSubmatch(base)
	if match == nil {
		return "", &ParseError{Filename: filename, Reason: "expected <generation>-<name>[.<ext>]"}
	}
	return match[2], nil
}
