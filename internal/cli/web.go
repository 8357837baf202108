package cli

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/bosunworks/bosun/internal/config"
	"github.com/bosunworks/bosun/internal/taskgraph"
	"github.com/bosunworks/bosun/internal/web"
)

var webCmd = &cobra.Command{
	Use:   "web",
	Short: "Serve the read-only task board over HTTP",
	RunE:  runWeb,
}

func init() {
	webCmd.Flags().String("addr", "", "Listen address (overrides web.addr)")
}

func runWeb(cmd *cobra.Command, args []string) error {
	cfg, err := config.Load()
	if err != nil {
		return fmt.Errorf("failed to load config: %w", err)
	}

	mgr, err := taskgraph.NewManager(cfg.TasksDir())
	if err != nil {
		return err
	}

	addr, _ := cmd.Flags().GetString("addr")
	if addr == "" {
		addr = cfg.Web.Addr
	}

	srv := web.NewServer(mgr, cfg.Project.Name)
	fmt.Printf("Serving task board at http://%s\n", addr)
	return srv.Run(addr)
}
