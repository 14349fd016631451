package cmd

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"path/filepath"
	"syscall"
	"time"

	"github.com/spf13/cobra"

	"github.com/theirongolddev/cadence/internal/config"
	"github.com/theirongolddev/cadence/internal/logger"
	"github.com/theirongolddev/cadence/internal/report"
	"github.com/theirongolddev/cadence/internal/server"
	"github.com/theirongolddev/cadence/internal/store"
)

// runFile records the live server so `serve status` and `serve stop` can find it.
type runFile struct {
	PID       int       `json:"pid"`
	Addr      string    `json:"addr"`
	StartedAt time.Time `json:"started_at"`
	DBPath    string    `json:"db_path,omitempty"`
}

var (
	flagServeAddr         string
	flagServeSchedule     string
	flagServeRunFile      string
	flagServeEventsBuffer int
)

var serveCmd = &cobra.Command{
	Use:   "serve",
	Short: "Run the budget HTTP API with SSE change streams",
	RunE:  runServe,
}

var serveStatusCmd = &cobra.Command{
	Use:   "status",
	Short: "Show server process and API status",
	RunE:  runServeStatus,
}

var serveStopCmd = &cobra.Command{
	Use:   "stop",
	Short: "Stop the running server",
	RunE:  runServeStop,
}

func init() {
	serveCmd.PersistentFlags().StringVar(&flagServeRunFile, "run-file",
		filepath.Join(config.DataDir(), "cadenced.json"), "File recording the running server")

	serveCmd.Flags().StringVar(&flagServeAddr, "addr", "", "HTTP listen address (default from config)")
	serveCmd.Flags().StringVar(&flagServeSchedule, "schedule", "", "Cron spec for scheduled CSV exports (default from config)")
	serveCmd.Flags().IntVar(&flagServeEventsBuffer, "events-buffer", 0, "Max in-memory events retained per session (default from config)")

	serveCmd.AddCommand(serveStatusCmd, serveStopCmd)
	rootCmd.AddCommand(serveCmd)
}

func runServe(_ *cobra.Command, _ []string) error {
	if rf, err := readRunFile(flagServeRunFile); err == nil && processAlive(rf.PID) {
		return fmt.Errorf("server already running (pid %d on %s)", rf.PID, rf.Addr)
	}

	freq, err := displayFrequency()
	if err != nil {
		return err
	}

	conf := server.Config{
		Addr:              config.ServerAddr(cfg),
		EventsBuffer:      cfg.Server.EventsBuffer,
		Frequency:         freq,
		FrequencyOverride: frequencyOverride(),
		SeedDefaults:      cfg.General.SeedDefaults,
		ExportSchedule:    cfg.Export.Schedule,
	}
	if flagServeAddr != "" {
		conf.Addr = flagServeAddr
	}
	if flagServeSchedule != "" {
		conf.ExportSchedule = flagServeSchedule
	}
	if flagServeEventsBuffer > 0 {
		conf.EventsBuffer = flagServeEventsBuffer
	}

	opts := []server.Option{
		server.WithLogger(logger.Log.WithField("pid", os.Getpid())),
		server.WithSink(report.FileSink{Dir: cfg.Export.Dir}),
	}

	rf := runFile{PID: os.Getpid(), Addr: conf.Addr, StartedAt: time.Now()}
	if !flagNoStore {
		rf.DBPath = dbPath()
		db, err := store.Open(rf.DBPath)
		if err != nil {
			return err
		}
		defer func() { _ = db.Close() }()
		opts = append(opts, server.WithStore(db))
	}

	svc, err := server.New(conf, opts...)
	if err != nil {
		return err
	}

	if err := writeRunFile(flagServeRunFile, rf); err != nil {
		return err
	}
	defer func() { _ = os.Remove(flagServeRunFile) }()

	fmt.Printf("  cadence server listening on http://%s\n", conf.Addr)
	if conf.ExportSchedule != "" {
		fmt.Printf("  Exporting on schedule %q\n", conf.ExportSchedule)
	}
	fmt.Println("  Stop with Ctrl+C or `cadence serve stop`")

	ctx, cancel := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer cancel()

	if err := svc.Run(ctx); err != nil && !errors.Is(err, context.Canceled) {
		return err
	}
	return nil
}

func runServeStatus(cmd *cobra.Command, _ []string) error {
	rf, err := readRunFile(flagServeRunFile)
	if err != nil {
		fmt.Println("  Server: not running")
		return nil
	}
	if !processAlive(rf.PID) {
		fmt.Printf("  Server: not running (stale run file for pid %d)\n", rf.PID)
		return nil
	}

	fmt.Printf("  Server PID: %d\n", rf.PID)
	fmt.Printf("  Address: http://%s\n", rf.Addr)
	if rf.DBPath != "" {
		fmt.Printf("  Database: %s\n", rf.DBPath)
	}

	st, err := fetchStatus(cmd.Context(), rf.Addr)
	if err != nil {
		fmt.Printf("  API status: %v\n", err)
		return nil
	}

	fmt.Printf("  Started: %s\n", st.StartedAt.Local().Format(time.RFC3339))
	fmt.Printf("  Sessions: %d (persistent default: %v)\n", st.Sessions, st.Persistent)
	fmt.Printf("  Events: %d, subscribers: %d\n", st.EventCount, st.SubscriberCount)
	if st.ExportSchedule != "" {
		fmt.Printf("  Export schedule: %s\n", st.ExportSchedule)
	}
	if st.LastExportAt.IsZero() {
		fmt.Println("  Last export: none")
	} else {
		fmt.Printf("  Last export: %s (%s)\n", st.LastExportAt.Local().Format(time.RFC3339), st.LastExportPath)
	}
	fmt.Printf("  Export count: %d\n", st.ExportCount)
	if st.LastError != "" {
		fmt.Printf("  Last error: %s\n", st.LastError)
	}
	return nil
}

func fetchStatus(ctx context.Context, addr string) (server.Status, error) {
	var st server.Status
	if ctx == nil {
		ctx = context.Background()
	}
	ctx, cancel := context.WithTimeout(ctx, 2*time.Second)
	defer cancel()

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, "http://"+addr+"/v1/status", nil)
	if err != nil {
		return st, err
	}
	resp, err := http.DefaultClient.Do(req)
	if err != nil {
		return st, fmt.Errorf("unreachable (%w)", err)
	}
	defer func() { _ = resp.Body.Close() }()

	if resp.StatusCode != http.StatusOK {
		return st, fmt.Errorf("HTTP %d", resp.StatusCode)
	}
	if err := json.NewDecoder(resp.Body).Decode(&st); err != nil {
		return st, fmt.Errorf("malformed response (%w)", err)
	}
	return st, nil
}

func runServeStop(_ *cobra.Command, _ []string) error {
	rf, err := readRunFile(flagServeRunFile)
	if err != nil || !processAlive(rf.PID) {
		return errors.New("server is not running")
	}

	proc, err := os.FindProcess(rf.PID)
	if err != nil {
		return fmt.Errorf("find server process: %w", err)
	}
	if err := proc.Signal(syscall.SIGTERM); err != nil {
		return fmt.Errorf("signal server process: %w", err)
	}

	tick := time.NewTicker(150 * time.Millisecond)
	defer tick.Stop()
	timeout := time.After(8 * time.Second)
	for {
		select {
		case <-tick.C:
			if !processAlive(rf.PID) {
				_ = os.Remove(flagServeRunFile)
				fmt.Printf("  Stopped server (pid %d)\n", rf.PID)
				return nil
			}
		case <-timeout:
			return fmt.Errorf("server (pid %d) did not exit in time", rf.PID)
		}
	}
}

func processAlive(pid int) bool {
	proc, err := os.FindProcess(pid)
	if err != nil {
		return false
	}
	err = proc.Signal(syscall.Signal(0))
	return err == nil || errors.Is(err, syscall.EPERM)
}

func writeRunFile(path string, rf runFile) error {
	if err := os.MkdirAll(filepath.Dir(path), 0o750); err != nil {
		return fmt.Errorf("creating run file dir: %w", err)
	}
	data, err := json.MarshalIndent(rf, "", "  ")
	if err != nil {
		return err
	}
	return os.WriteFile(path, append(data, '\n'), 0o600)
}

func readRunFile(path string) (runFile, error) {
	var rf runFile
	//nolint:gosec // run file path is configured by the local user
	data, err := os.ReadFile(path)
	if err != nil {
		return rf, err
	}
	if err := json.Unmarshal(data, &rf); err != nil {
		return rf, fmt.Errorf("reading %s: %w", path, err)
	}
	if rf.PID <= 0 {
		return rf, fmt.Errorf("invalid pid in %s", path)
	}
	return rf, nil
}
