package main

import (
	"context"
	"fmt"
	"net"
	"net/http"
	"net/url"
	"os"
	"os/signal"
	"sort"
	"strconv"
	"syscall"

	"github.com/prometheus/client_golang/prometheus/promhttp"
	"github.com/urfave/cli/v2"
	"golang.org/x/sync/errgroup"
	"google.golang.org/grpc"
	"google.golang.org/grpc/credentials/insecure"
	"k8s.io/klog/v2"

	"github.com/rpcpool/inferencestore/cachestore"
	"github.com/rpcpool/inferencestore/config"
	"github.com/rpcpool/inferencestore/dispatcher"
	"github.com/rpcpool/inferencestore/metrics"
	"github.com/rpcpool/inferencestore/rpcproto"
	"github.com/rpcpool/inferencestore/service"
)

var gitCommitSHA = ""

func main() {
	// set up a context that is canceled when the process is interrupted
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	// set up a signal handler to cancel the context
	go func() {
		interrupt := make(chan os.Signal, 1)
		signal.Notify(interrupt, syscall.SIGTERM, syscall.SIGINT)

		select {
		case <-interrupt:
			fmt.Println()
			klog.Info("received interrupt signal")
			cancel()
		case <-ctx.Done():
		}

		// Allow any further SIGTERM or SIGINT to kill process
		signal.Stop(interrupt)
	}()

	var configPath string
	var mode string
	var listenOn string
	var metricsListenOn string
	var upstreamTarget string
	var storeDir string

	app := &cli.App{
		Name:        "inferencestore",
		Version:     gitCommitSHA,
		Description: "A record-and-replay caching proxy for a KServe v2 model-inference gRPC service: forwards misses upstream and persists the responses in collect mode, answers only from the recorded cache in serve mode.",
		Before: func(c *cli.Context) error {
			return nil
		},
		Flags: append(NewKlogFlagSet(),
			&cli.StringFlag{
				Name:        "config",
				Usage:       "Path to a config file (default: look for ./inferencestore.{yaml,json,toml})",
				Destination: &configPath,
			},
			&cli.StringFlag{
				Name:        "mode",
				Usage:       "Operating mode: collect (forward misses upstream and persist) or serve (answer only from the cache)",
				Destination: &mode,
			},
			&cli.StringFlag{
				Name:        "listen",
				Usage:       "Listen address (host:port) for the KServe v2 gRPC server",
				Destination: &listenOn,
			},
			&cli.StringFlag{
				Name:        "metrics-listen",
				Usage:       "Listen address for the Prometheus /metrics endpoint (empty disables it)",
				Destination: &metricsListenOn,
			},
			&cli.StringFlag{
				Name:        "upstream-target",
				Usage:       "Upstream inference server URL to forward cache misses to in collect mode",
				Destination: &upstreamTarget,
			},
			&cli.StringFlag{
				Name:        "store-dir",
				Usage:       "Directory recorded inference and config entries are kept in",
				Destination: &storeDir,
			},
		),
		Action: func(c *cli.Context) error {
			cfg, err := config.Load(configPath)
			if err != nil {
				return fmt.Errorf("loading config: %w", err)
			}

			if mode != "" {
				cfg.Mode = mode
			}
			if listenOn != "" {
				host, portStr, err := net.SplitHostPort(listenOn)
				if err != nil {
					return fmt.Errorf("--listen: %w", err)
				}
				port, err := strconv.Atoi(portStr)
				if err != nil {
					return fmt.Errorf("--listen: invalid port %q", portStr)
				}
				cfg.Server.Host, cfg.Server.Port = host, port
			}
			if metricsListenOn != "" {
				cfg.Metrics.Listen = metricsListenOn
			}
			if upstreamTarget != "" {
				cfg.TargetServer.Host = upstreamTarget
			}
			if storeDir != "" {
				cfg.RequestCollection.Path = storeDir
			}

			return run(ctx, cfg)
		},
	}

	sort.Sort(cli.FlagsByName(app.Flags))

	if err := app.RunContext(ctx, os.Args); err != nil {
		klog.Fatal(err)
	}
}

func run(ctx context.Context, cfg *config.Config) error {
	var dispatchMode dispatcher.Mode
	switch cfg.Mode {
	case "serve":
		dispatchMode = dispatcher.ModeServe
	case "collect", "":
		dispatchMode = dispatcher.ModeCollect
	default:
		return fmt.Errorf("unknown mode %q: want \"collect\" or \"serve\"", cfg.Mode)
	}

	// The infer and config stores scan disjoint filename prefixes under the
	// same directory, so loading them is safe to parallelize at startup.
	var inferStore *cachestore.InferStore
	var configStore *cachestore.ConfigStore
	var g errgroup.Group
	g.Go(func() error {
		s, err := cachestore.OpenInferStore(cfg.RequestCollection.Path)
		if err != nil {
			return fmt.Errorf("opening inference store: %w", err)
		}
		inferStore = s
		return nil
	})
	g.Go(func() error {
		s, err := cachestore.OpenConfigStore(cfg.RequestCollection.Path)
		if err != nil {
			return fmt.Errorf("opening config store: %w", err)
		}
		configStore = s
		return nil
	})
	if err := g.Wait(); err != nil {
		return err
	}
	klog.Infof("loaded %d cached inference entries from %s", inferStore.Len(), cfg.RequestCollection.Path)

	d := &dispatcher.Dispatcher{
		Mode:     dispatchMode,
		Policy:   cfg.RequestMatching.ToPolicy(),
		Infer:    inferStore,
		Configs:  configStore,
		Counters: metrics.Counters{},
	}

	if dispatchMode == dispatcher.ModeCollect {
		if cfg.TargetServer.Host == "" {
			return fmt.Errorf("mode=collect requires target_server.host to be set")
		}
		dialTarget := cfg.TargetServer.Host
		if u, err := url.Parse(cfg.TargetServer.Host); err == nil && u.Host != "" {
			// grpc-go's resolver parses everything before "://" as a scheme,
			// so a plain http(s):// upstream URL needs its host:port pulled
			// out before dialing.
			dialTarget = u.Host
		}
		cc, err := grpc.NewClient(dialTarget, grpc.WithTransportCredentials(insecure.NewCredentials()))
		if err != nil {
			return fmt.Errorf("dialing upstream %s: %w", cfg.TargetServer.Host, err)
		}
		d.Upstream = rpcproto.NewClient(cc)
	}

	config.WatchAndReload(func(newCfg *config.Config) {
		d.Policy = newCfg.RequestMatching.ToPolicy()
	})

	if cfg.Metrics.Listen != "" {
		go func() {
			mux := http.NewServeMux()
			mux.Handle("/metrics", promhttp.Handler())
			klog.Infof("serving Prometheus metrics on %s", cfg.Metrics.Listen)
			if err := http.ListenAndServe(cfg.Metrics.Listen, mux); err != nil {
				klog.Errorf("metrics server stopped: %v", err)
			}
		}()
	}

	svc := &service.Service{Dispatcher: d}
	service.SetVersion(gitCommitSHA)
	return svc.ListenAndServeGRPC(ctx, cfg.Server.Addr())
}
