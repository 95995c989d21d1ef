// Command zk-init boots one kernel instance, spawns the init process,
// and attaches a console collaborator to it -- the smallest possible
// complete system: a kernel with exactly one process talking to a
// terminal through the same syscall ABI any other process would use.
package main

import (
	"flag"
	"fmt"
	"os"
	"time"

	"github.com/gofrs/uuid"

	"github.com/cypher-asi/zero-os-sub001/internal/commit"
	"github.com/cypher-asi/zero-os-sub001/internal/console"
	"github.com/cypher-asi/zero-os-sub001/internal/host"
	"github.com/cypher-asi/zero-os-sub001/internal/kernel"
	"github.com/cypher-asi/zero-os-sub001/internal/klog"
	"github.com/cypher-asi/zero-os-sub001/internal/sched"
	"github.com/cypher-asi/zero-os-sub001/internal/syscall"
)

var (
	f_config = flag.String("config", "", "path to a zk-init config file (YAML); unset uses built-in defaults")
	f_audit  = flag.Bool("audit", false, "run the full invariant sweep after every syscall")
)

func usage() {
	fmt.Println("zk-init: boot a kernel instance and attach a console")
	fmt.Println("usage: zk-init [option]...")
	flag.PrintDefaults()
}

func main() {
	flag.Usage = usage
	flag.Parse()

	klog.AddLogger("stdout", os.Stdout, klog.INFO, true)

	cfg, err := kernel.LoadConfig(*f_config)
	if err != nil {
		klog.Fatal("zk-init: failed to load config: %v", err)
	}
	if *f_audit {
		cfg.AuditEveryCall = true
	}

	if lvl, err := klog.ParseLevel(cfg.LogLevel); err != nil {
		klog.Warn("zk-init: %v, keeping default log level", err)
	} else {
		klog.DelLogger("stdout")
		klog.AddLogger("stdout", os.Stdout, lvl, true)
	}

	h := host.New()
	sc := sched.NewCooperative()

	bootID, err := uuid.NewV4()
	if err != nil {
		klog.Fatal("zk-init: failed to generate boot id: %v", err)
	}
	log := commit.New(commit.NewMemSink(), bootID)

	s := kernel.New(cfg, h, sc, log)
	if err := s.Init(); err != nil {
		klog.Fatal("zk-init: kernel init failed: %v", err)
	}
	defer s.Shutdown()

	proc, tcb, err := s.Spawn("init", 0, 0, 10*time.Millisecond.Nanoseconds(), 0)
	if err != nil {
		klog.Fatal("zk-init: failed to spawn init process: %v", err)
	}

	epRes, code := s.DispatchSyscall(tcb.TID, uint32(syscall.EndpointCreate), syscall.Args{A0: uint64(cfg.DefaultQueueDepth)})
	if code != 0 {
		klog.Fatal("zk-init: failed to create console endpoint: code %d", code)
	}
	endpointSlot := uint32(epRes.Value)

	if _, err := s.BootConsole(proc.PID); err != nil {
		klog.Fatal("zk-init: failed to grant console capability: %v", err)
	}

	srv := console.NewServer("console", proc.PID, tcb.TID, endpointSlot, s, os.Stdout)
	defer srv.Close()

	klog.Info("zk-init: init process %d ready, type 'log' for recent kernel output, 'quit' to exit", proc.PID)

	if err := srv.Run(); err != nil {
		klog.Error("zk-init: console exited with error: %v", err)
		os.Exit(1)
	}
}
