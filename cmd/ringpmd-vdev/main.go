// File: cmd/ringpmd-vdev/main.go
// Author: momentics <momentics@gmail.com>
// License: Apache-2.0
//
// ringpmd-vdev is a minimal poll-mode driver harness: it parses the
// spec §2 `--vdev` nodeaction syntax, creates one RingDevice per
// CREATE clause (or looks an existing one up by name for ATTACH),
// pins the polling goroutine to CPU 0 (recording the first clause's
// NUMA node), and runs a
// tight RxBurst/TxBurst loopback loop until interrupted.

package main

import (
	"context"
	"flag"
	"fmt"
	"os"
	"os/signal"
	"syscall"
	"time"

	"go.uber.org/zap"

	"github.com/netgroup-polito/ringpmd"
	"github.com/netgroup-polito/ringpmd/internal/affinity"
	"github.com/netgroup-polito/ringpmd/internal/config"
	"github.com/netgroup-polito/ringpmd/internal/ivshmem"
	"github.com/netgroup-polito/ringpmd/internal/logging"
	"github.com/netgroup-polito/ringpmd/internal/mbuf"
	"github.com/netgroup-polito/ringpmd/internal/physnic"
	"github.com/netgroup-polito/ringpmd/internal/registry"
	"github.com/netgroup-polito/ringpmd/internal/ring"
	"github.com/netgroup-polito/ringpmd/internal/sidechannel"
	"github.com/netgroup-polito/ringpmd/internal/verbs"
)

// physNICDevice satisfies registry.Device so a *physnic.NIC can occupy
// a port_id slot the same way a RingDevice does, letting --bypass
// reuse the normal registration/lookup machinery.
type physNICDevice struct{ nic *physnic.NIC }

func (p physNICDevice) Name() string { return "phys0" }
func (p physNICDevice) Close() error { return p.nic.Close() }

func main() {
	vdev := flag.String("vdev", "", "eth_ring vdev argument, e.g. nodeaction=r0:0:CREATE")
	numa := flag.Int("numa", 0, "local NUMA node used when --vdev omits nodeaction clauses")
	dev := flag.Bool("dev", false, "enable development (console) logging")
	burst := flag.Int("burst-size", 32, "max packets per RxBurst/TxBurst call")
	bypass := flag.Bool("bypass", false, "attach the first device to a simulated physical NIC on startup")
	renameChannel := flag.String("rename-channel", "", "path to the guest virtio-serial control device that delivers ring-rename notifications")
	ivshmemConfig := flag.String("ivshmem-config", "", "path to the process-shared ivshmem config file (enables primary/secondary segment bookkeeping)")
	showVersion := flag.Bool("version", false, "print version and exit")
	flag.Parse()

	if *showVersion {
		info := ringpmd.Info()
		fmt.Printf("%s %s (%s)\n", info.Name, info.Version, info.Build)
		return
	}

	mode := config.LogModeProduction
	if *dev {
		mode = config.LogModeDevelopment
	}
	log, err := logging.New(mode)
	if err != nil {
		fmt.Fprintf(os.Stderr, "ringpmd-vdev: logger init failed: %v\n", err)
		os.Exit(1)
	}
	defer log.Sync()

	params, err := config.ParseVdevArgs(*vdev, *numa)
	if err != nil {
		log.Fatal("invalid --vdev argument", zap.Error(err))
	}

	reg := registry.New()
	devices := make([]*ringpmd.Device, 0, len(params.Actions))
	rings := make(map[string]*ring.Ring[*mbuf.Buffer])

	for i, action := range params.Actions {
		var r *ring.Ring[*mbuf.Buffer]
		name := config.RingName(i, action.Name)
		switch action.Action {
		case config.ActionCreate:
			r = ring.New[*mbuf.Buffer](config.DefaultRingEntries)
			rings[name] = r
			log.Info("created ring", zap.String("name", name), zap.Int("numa", action.NUMA))
		case config.ActionAttach:
			existing, ok := rings[name]
			if !ok {
				log.Fatal("nodeaction ATTACH references unknown ring", zap.String("name", name))
			}
			r = existing
			log.Info("attached to ring", zap.String("name", name))
		}

		cfg := config.DefaultDeviceConfig(action.Name, action.NUMA)
		mac := [6]byte{0x02, 0x00, 0x00, 0x00, 0x00, byte(i + 1)}
		d, id, err := ringpmd.FromRing(cfg, mac, r, reg, ringpmd.WithLogger(log))
		if err != nil {
			log.Fatal("device creation failed", zap.String("name", action.Name), zap.Error(err))
		}
		d.SetLinkUp(true)
		log.Info("device up", zap.String("name", action.Name), zap.Int("port_id", int(id)))
		devices = append(devices, d)
	}

	if *bypass && len(devices) > 0 {
		nic := physnic.New(verbs.NewSimBackend(), verbs.DeviceLimits{MaxQPWR: 1024, MaxSGE: verbs.SGWRN}, log)
		id, err := reg.Register("phys0", physNICDevice{nic})
		if err != nil {
			log.Fatal("physical NIC registration failed", zap.Error(err))
		}
		if err := ringpmd.AddBypass(devices[0], id, nic); err != nil {
			log.Fatal("bypass attach failed", zap.Error(err))
		}
		log.Info("attached simulated physical NIC", zap.String("device", devices[0].Name()))
	}

	if *ivshmemConfig != "" {
		cf, err := ivshmem.Open(*ivshmemConfig)
		if err != nil {
			log.Fatal("ivshmem config open failed", zap.Error(err))
		}
		defer cf.Close()
		log.Info("ivshmem config opened", zap.String("path", *ivshmemConfig), zap.Int("role", int(cf.Role())))
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	if *renameChannel != "" {
		ch, err := sidechannel.Open(*renameChannel, log, func(oldName, newName string) {
			if err := reg.Rename(oldName, newName); err != nil {
				log.Warn("rename notification rejected", zap.String("old", oldName), zap.String("new", newName), zap.Error(err))
			}
		})
		if err != nil {
			log.Fatal("rename channel open failed", zap.Error(err))
		}
		go func() {
			if err := ch.Run(ctx); err != nil && ctx.Err() == nil {
				log.Warn("rename channel stopped", zap.Error(err))
			}
		}()
		defer ch.Close()
	}

	pin := affinity.NewPinner()
	if len(params.Actions) > 0 {
		if err := pin.Pin(0, params.Actions[0].NUMA); err != nil {
			log.Warn("affinity pin failed, continuing unpinned", zap.Error(err))
		} else {
			defer pin.Unpin()
		}
	}

	pollLoop(ctx, log, devices, *burst)
}

// pollLoop busy-polls every device's queues, looping packets from RX
// back to TX on the same queue index (the spec §2 CREATE/ATTACH
// harness has no external traffic source, so this models the
// simplest possible consumer of the ring API).
func pollLoop(ctx context.Context, log *zap.Logger, devices []*ringpmd.Device, burstSize int) {
	buf := make([]*mbuf.Buffer, burstSize)
	ticker := time.NewTicker(time.Millisecond)
	defer ticker.Stop()

	log.Info("polling", zap.Int("devices", len(devices)))
	for {
		select {
		case <-ctx.Done():
			log.Info("shutting down")
			for _, d := range devices {
				if err := d.Close(); err != nil {
					log.Warn("device close failed", zap.String("name", d.Name()), zap.Error(err))
				}
			}
			return
		case <-ticker.C:
			for _, d := range devices {
				for qi := 0; qi < d.NumRxQueues(); qi++ {
					n, err := d.RxBurst(qi, buf)
					if err != nil || n == 0 {
						continue
					}
					if _, err := d.TxBurst(qi%d.NumTxQueues(), buf[:n]); err != nil {
						log.Warn("txburst failed", zap.String("name", d.Name()), zap.Error(err))
					}
				}
			}
		}
	}
}
