// Package profilers implement helper functions to set up profiling and monitoring of rl-loop.
//
// If linked, it will install the profiler flags. With -prof=<port> an HTTP server is started on
// localhost serving the pprof handlers (/debug/pprof) and the Prometheus metrics (/metrics).
package profilers

import (
	"context"
	"flag"
	"fmt"
	"net/http"
	_ "net/http/pprof"
	"os"
	"runtime/pprof"

	"github.com/prometheus/client_golang/prometheus/promhttp"
	"k8s.io/klog/v2"
)

var (
	flagProfiler   = flag.Int("prof", -1, "If set, serves pprof and the Prometheus /metrics at the given port.")
	flagCPUProfile = flag.String("cpu_profile", "", "write cpu profile to `file`")
	flagKeepAlive  = flag.Bool("prof_keep_alive", false, "If set with -prof, keeps the program alive on exit "+
		"until interrupted, so the profile can still be read.")
	profilerAddr string

	// globalCtx is set on the call to Setup.
	globalCtx context.Context
)

// Setup starts the HTTP (flag -prof) and CPU profilers (flag -cpu_profile), if they were configured.
// You should follow with a deferred call to OnQuit.
func Setup(ctx context.Context) {
	globalCtx = ctx
	if *flagProfiler >= 0 {
		setupHTTPServer()
	}
	if *flagCPUProfile != "" {
		createCPUProfile()
	}
}

// OnQuit should be called before the exit of the main() function, typically this is setup as a deferred call
// just after Setup.
func OnQuit() {
	if *flagCPUProfile != "" {
		pprof.StopCPUProfile()
	}
	if *flagProfiler >= 0 && *flagKeepAlive {
		keepAliveOnQuit()
	}
}

// createCPUProfile creates the file pointed by *flagCPUProfile and starts the CPU profiling there.
func createCPUProfile() {
	f, err := os.Create(*flagCPUProfile)
	if err != nil {
		klog.Fatal("could not create CPU profile: ", err)
	}
	if err := pprof.StartCPUProfile(f); err != nil {
		klog.Fatal("could not start CPU profile: ", err)
	}
}

// setupHTTPServer serves pprof (registered by net/http/pprof on the default mux) and the metrics.
func setupHTTPServer() {
	profilerAddr = fmt.Sprintf("localhost:%d", *flagProfiler)
	http.Handle("/metrics", promhttp.Handler())
	klog.Infof("Serving profiler on %s/debug/pprof and metrics on %s/metrics", profilerAddr, profilerAddr)
	klog.Infof("- You can access the profile with: $ go tool pprof %s/debug/pprof/heap", profilerAddr)
	go func() {
		klog.Fatal(http.ListenAndServe(profilerAddr, nil))
	}()
}

// keepAliveOnQuit is called on exit if the profiler is configured with -prof_keep_alive:
// it keeps the program alive until interrupt is called.
func keepAliveOnQuit() {
	// Don't freeze on panic.
	if err := recover(); err != nil {
		panic(err)
	}
	if globalCtx.Err() != nil {
		// Already interrupted.
		return
	}
	fmt.Printf("- Program finished: kept alive with profiler opened at %s/debug/pprof\n", profilerAddr)
	fmt.Printf("- Interrupt (Ctrl+C) to exit\n")
	<-globalCtx.Done()
	fmt.Printf("... exiting ...\n")
}
