// Package main 提供 peermeta 命令行入口
package main

import (
	"context"
	"flag"
	"fmt"
	"net"
	"os"
	"os/signal"
	"syscall"
	"time"

	"google.golang.org/grpc"

	peermeta "github.com/dep2p/go-peermeta"
	"github.com/dep2p/go-peermeta/config"
	"github.com/dep2p/go-peermeta/internal/core/controlplane"
	"github.com/dep2p/go-peermeta/pkg/lib/log"
)

var logger = log.Logger("peermeta/cmd")

// ═══════════════════════════════════════════════════════════════════════════
// 命令行参数
// ═══════════════════════════════════════════════════════════════════════════
//
//   命令行参数：运行时覆盖（这次运行想怎么跑）
//   配置文件：持久化配置（身份、发现链、控制面等）
//
// ═══════════════════════════════════════════════════════════════════════════
var (
	configFile     = flag.String("config", "", "配置文件路径（JSON/YAML）")
	preset         = flag.String("preset", "", "预设配置 (sidecar/gateway/waypoint/minimal)")
	introspectAddr = flag.String("introspect", "", "自省服务监听地址（为空时按配置）")
	serveCP        = flag.String("serve-control-plane", "", "以配置中的静态记录启动 gRPC 控制面，监听该地址")

	logLevel  = flag.String("log-level", "", "日志级别 (debug/info/warn/error)")
	logFormat = flag.String("log-format", "", "日志格式 (text/json)")

	showVersion = flag.Bool("version", false, "显示版本信息")
)

func main() {
	if err := run(); err != nil {
		fmt.Fprintf(os.Stderr, "错误: %v\n", err)
		os.Exit(1)
	}
}

func run() error {
	flag.Parse()

	if *showVersion {
		fmt.Println(peermeta.VersionInfo())
		return nil
	}

	cfg, err := loadConfig()
	if err != nil {
		return fmt.Errorf("配置错误: %w", err)
	}
	if err := setupLogging(cfg.Log); err != nil {
		return err
	}
	logger.Info("启动 peermeta", "version", peermeta.Version, "commit", peermeta.GitCommit, "buildDate", peermeta.BuildDate)

	// 控制面服务端（可选）
	if *serveCP != "" {
		stop, err := serveControlPlane(*serveCP, cfg.ControlPlane.Records)
		if err != nil {
			return fmt.Errorf("控制面服务启动失败: %w", err)
		}
		defer stop()
	}

	agent, err := peermeta.New(buildOptions(cfg)...)
	if err != nil {
		return fmt.Errorf("创建失败: %w", err)
	}

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()
	if err := agent.Start(ctx); err != nil {
		return fmt.Errorf("启动失败: %w", err)
	}

	printAgentInfo(agent)
	fmt.Println("已启动，按 Ctrl+C 退出")
	waitForSignal()

	fmt.Println("\n正在关闭...")
	stopCtx, stopCancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer stopCancel()
	return agent.Stop(stopCtx)
}

// loadConfig 加载配置
//
// 优先级（从高到低）：命令行参数、环境变量（PEERMETA_ 前缀）、配置文件、预设默认值。
func loadConfig() (*config.Config, error) {
	cfg := config.NewConfig()
	if *configFile != "" {
		var err error
		cfg, err = config.LoadFile(*configFile)
		if err != nil {
			return nil, fmt.Errorf("加载配置文件失败: %w", err)
		}
	}

	applyEnvOverrides(cfg)

	if *preset != "" {
		if err := config.ApplyPreset(cfg, *preset); err != nil {
			return nil, err
		}
	}
	if *introspectAddr != "" {
		cfg.Diagnostics.EnableIntrospect = true
		cfg.Diagnostics.IntrospectAddr = *introspectAddr
	}
	if *logLevel != "" {
		cfg.Log.Level = *logLevel
	}
	if *logFormat != "" {
		cfg.Log.Format = *logFormat
	}
	if *serveCP != "" && cfg.ControlPlane.Mode == config.ControlPlaneStatic {
		// 本进程同时作为控制面时，代理改为通过 gRPC 订阅自己
		cfg.ControlPlane.Mode = config.ControlPlaneGRPC
		cfg.ControlPlane.Address = *serveCP
	}

	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

func buildOptions(cfg *config.Config) []peermeta.Option {
	return []peermeta.Option{peermeta.WithConfig(cfg)}
}

func setupLogging(cfg config.LogConfig) error {
	level, err := log.ParseLevel(cfg.Level)
	if err != nil {
		return err
	}
	return log.Configure(os.Stderr, cfg.Format, level)
}

// serveControlPlane 以静态记录启动 gRPC 控制面服务
func serveControlPlane(addr string, records []config.StaticRecord) (func(), error) {
	recs, err := controlplane.RecordsFromConfig(records)
	if err != nil {
		return nil, err
	}
	lis, err := net.Listen("tcp", addr)
	if err != nil {
		return nil, err
	}

	srv := grpc.NewServer()
	controlplane.RegisterServer(srv, controlplane.NewServer(controlplane.NewRegistry(recs...)))
	go func() {
		if err := srv.Serve(lis); err != nil {
			logger.Warn("控制面服务退出", "error", err)
		}
	}()
	logger.Info("控制面服务已启动", "addr", lis.Addr().String(), "records", len(recs))
	return srv.GracefulStop, nil
}

func printAgentInfo(a *peermeta.Agent) {
	fmt.Printf("📦 %s\n", peermeta.VersionInfo())
	fmt.Printf("   身份:     %s\n", a.Self())
	if a.Self().Identity != "" {
		fmt.Printf("   信任身份: %s\n", a.Self().Identity)
	}
	fmt.Printf("   worker:   %d\n", a.Cache().Shards())
	fmt.Printf("   控制面:   %s\n", a.Config().ControlPlane.Mode)
	if s := a.Introspect(); s != nil {
		fmt.Printf("   自省服务: http://%s/debug/introspect\n", s.Addr())
	}
}

// waitForSignal 等待退出信号
func waitForSignal() {
	signals := make(chan os.Signal, 1)
	signal.Notify(signals, syscall.SIGINT, syscall.SIGTERM)
	<-signals
}
