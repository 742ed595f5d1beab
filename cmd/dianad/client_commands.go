package main

import (
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"time"

	"github.com/spf13/cobra"

	"github.com/dianalab/diana-server-go/client"
)

var (
	inferInputType  string
	inferBehaviorID string
	inferWait       bool
)

var healthCmd = &cobra.Command{
	Use:   "health",
	Short: "查询服务健康状态",
	RunE: func(cmd *cobra.Command, args []string) error {
		h, err := client.New(serverURL).Health(cmd.Context())
		if err != nil {
			return err
		}
		return printJSON(h)
	},
}

var uploadCmd = &cobra.Command{
	Use:   "upload <file>",
	Short: "上传视频或骨架 JSON 文件",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		c := client.New(serverURL)
		path := args[0]
		if filepath.Ext(path) == ".json" {
			b, err := os.ReadFile(path)
			if err != nil {
				return err
			}
			var data map[string]any
			if err := json.Unmarshal(b, &data); err != nil {
				return fmt.Errorf("parse skeleton json: %w", err)
			}
			out, err := c.UploadSkeleton(cmd.Context(), filepath.Base(path), data)
			if err != nil {
				return err
			}
			return printJSON(out)
		}
		out, err := c.UploadVideo(cmd.Context(), path)
		if err != nil {
			return err
		}
		return printJSON(out)
	},
}

var inferCmd = &cobra.Command{
	Use:   "infer <input_id>",
	Short: "提交推理任务",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		c := client.New(serverURL)
		jobID, err := c.StartInference(cmd.Context(), args[0], inferInputType, inferBehaviorID)
		if err != nil {
			return err
		}
		fmt.Println(jobID)
		if !inferWait {
			return nil
		}
		st, err := c.WaitForJob(cmd.Context(), jobID, time.Second)
		if err != nil {
			return err
		}
		if st.Status == "failed" {
			return fmt.Errorf("job failed: %s", st.Error)
		}
		res, err := c.JobResults(cmd.Context(), jobID)
		if err != nil {
			return err
		}
		return printJSON(res)
	},
}

var statusCmd = &cobra.Command{
	Use:   "status <job_id>",
	Short: "查询任务状态",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		st, err := client.New(serverURL).JobStatus(cmd.Context(), args[0])
		if err != nil {
			return err
		}
		return printJSON(st)
	},
}

var resultsCmd = &cobra.Command{
	Use:   "results <job_id>",
	Short: "获取已完成任务的结果",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		res, err := client.New(serverURL).JobResults(cmd.Context(), args[0])
		if err != nil {
			return err
		}
		return printJSON(res)
	},
}

var cancelCmd = &cobra.Command{
	Use:   "cancel <job_id>",
	Short: "取消在跑任务",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		return client.New(serverURL).Cancel(cmd.Context(), args[0])
	},
}

var behaviorsCmd = &cobra.Command{
	Use:   "behaviors",
	Short: "列出可用行为目录",
	RunE: func(cmd *cobra.Command, args []string) error {
		raw, err := client.New(serverURL).Behaviors(cmd.Context())
		if err != nil {
			return err
		}
		var v any
		if err := json.Unmarshal(raw, &v); err != nil {
			return err
		}
		return printJSON(v)
	},
}

func printJSON(v any) error {
	b, err := json.MarshalIndent(v, "", "  ")
	if err != nil {
		return err
	}
	fmt.Println(string(b))
	return nil
}

func init() {
	inferCmd.Flags().StringVar(&inferInputType, "type", "video", "输入类型：video | skeleton")
	inferCmd.Flags().StringVar(&inferBehaviorID, "behavior", "", "行为 ID")
	inferCmd.Flags().BoolVar(&inferWait, "wait", false, "等待任务完成并输出结果")
	_ = inferCmd.MarkFlagRequired("behavior")
	rootCmd.AddCommand(healthCmd, uploadCmd, inferCmd, statusCmd, resultsCmd, cancelCmd, behaviorsCmd)
}
