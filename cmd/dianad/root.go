package main

import (
	"context"
	"fmt"
	"os"
	"time"

	"github.com/spf13/cobra"

	"github.com/dianalab/diana-server-go/config"
	"github.com/dianalab/diana-server-go/logging"
	"github.com/dianalab/diana-server-go/storage/gormstore"
	"github.com/dianalab/diana-server-go/worker"
)

var (
	cfgFile   string
	serverURL string
)

var rootCmd = &cobra.Command{
	Use:   "dianad",
	Short: "DIANA 行为分析推理服务",
	Long:  "dianad 提供视频/骨架数据上传、异步推理任务与结果查询的 HTTP 服务，并附带命令行客户端。",
}

var serveCmd = &cobra.Command{
	Use:   "serve",
	Short: "启动推理服务",
	RunE: func(cmd *cobra.Command, args []string) error {
		var cfg config.Config
		if cfgFile != "" {
			var err error
			cfg, err = config.Load(cfgFile)
			if err != nil {
				return fmt.Errorf("load config: %w", err)
			}
		}
		if os.Getenv("DIANA_DUMMY_MODE") == "1" {
			cfg.Model.Dummy = true
		}

		opts, err := optionsFromConfig(cfg)
		if err != nil {
			return err
		}
		w := worker.NewWorker(opts...)

		ctx, cancel := worker.WithSignalCancel(cmd.Context())
		defer cancel()
		if err := w.Start(ctx); err != nil {
			return err
		}
		logging.L().Info(ctx, "dianad started", "addr", w.Addr())
		<-ctx.Done()
		logging.L().Info(context.Background(), "dianad shutting down")
		return nil
	},
}

// optionsFromConfig 将配置文件字段映射到 worker 选项，零值项交给默认值。
func optionsFromConfig(cfg config.Config) ([]worker.Option, error) {
	var opts []worker.Option
	if cfg.ListenAddr != "" {
		opts = append(opts, worker.WithListenAddr(cfg.ListenAddr))
	}
	if cfg.DataDir != "" {
		opts = append(opts, worker.WithDataDir(cfg.DataDir))
	}
	if cfg.LabelMap != "" {
		opts = append(opts, worker.WithLabelMapPath(cfg.LabelMap))
	}
	if cfg.Model.Path != "" {
		opts = append(opts, worker.WithModelPath(cfg.Model.Path))
	}
	if cfg.Model.Engine != "" {
		opts = append(opts, worker.WithEngineName(cfg.Model.Engine))
	}
	if cfg.Model.Dummy {
		opts = append(opts, worker.WithDummyMode(true))
	}
	if cfg.Jobs.StageDelayMS > 0 {
		opts = append(opts, worker.WithStageDelay(time.Duration(cfg.Jobs.StageDelayMS)*time.Millisecond))
	}
	if cfg.Jobs.MaxConcurrent > 0 {
		opts = append(opts, worker.WithMaxConcurrent(cfg.Jobs.MaxConcurrent))
	}
	if cfg.Jobs.HeartbeatSeconds > 0 {
		opts = append(opts, worker.WithHeartbeatEvery(time.Duration(cfg.Jobs.HeartbeatSeconds)*time.Second))
	}
	if cfg.Jobs.WatchdogSeconds > 0 {
		opts = append(opts, worker.WithWatchdogEvery(time.Duration(cfg.Jobs.WatchdogSeconds)*time.Second))
	}
	if cfg.Jobs.StuckAfterSeconds > 0 {
		opts = append(opts, worker.WithStuckAfter(time.Duration(cfg.Jobs.StuckAfterSeconds)*time.Second))
	}
	if len(cfg.CORSOrigins) > 0 {
		opts = append(opts, worker.WithCORSOrigins(cfg.CORSOrigins))
	}
	if cfg.Storage.SQLitePath != "" {
		st, err := gormstore.Open(cfg.Storage.SQLitePath)
		if err != nil {
			return nil, fmt.Errorf("open sqlite store: %w", err)
		}
		opts = append(opts, worker.WithStore(st))
	}
	return opts, nil
}

func init() {
	serveCmd.Flags().StringVarP(&cfgFile, "config", "c", "", "配置文件路径（YAML），缺省用内置默认值")
	rootCmd.PersistentFlags().StringVar(&serverURL, "server", "http://127.0.0.1:8000", "服务地址（客户端子命令使用）")
	rootCmd.AddCommand(serveCmd)
}
