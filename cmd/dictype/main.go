// Package main provides the CLI entrypoint for dictype.
package main

import (
	"context"
	"errors"
	"fmt"
	"io"
	"os"
	"os/exec"
	"path/filepath"
	"strings"
	"time"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/spf13/cobra"

	"github.com/verte-zerg/dictype/internal/audio"
	"github.com/verte-zerg/dictype/internal/config"
	"github.com/verte-zerg/dictype/internal/importer"
	"github.com/verte-zerg/dictype/internal/library"
	"github.com/verte-zerg/dictype/internal/model"
	"github.com/verte-zerg/dictype/internal/queue"
	"github.com/verte-zerg/dictype/internal/session"
	"github.com/verte-zerg/dictype/internal/speech"
	"github.com/verte-zerg/dictype/internal/stats"
	"github.com/verte-zerg/dictype/internal/tui"
)

const (
	defaultType            = string(model.Dictation)
	defaultAdvanceDelayMs  = 800
	defaultRollbackDelayMs = 300
	defaultSpeakDelayMs    = 300
	defaultStatsWindow     = 20
	defaultStatsSessions   = 10
	defaultStatsChars      = 15
)

var (
	practiceType         string
	practiceLibrary      string
	practiceAdvanceDelay int
	practiceNoSpeech     bool
	practiceNoAudio      bool

	importName string

	wrongRemove string

	statsLibrary string
	statsSince   string
	statsLast    int
	statsWindow  int
)

func main() {
	rootCmd := newRootCmd()
	if err := rootCmd.Execute(); err != nil {
		os.Exit(1)
	}
}

func newRootCmd() *cobra.Command {
	rootCmd := &cobra.Command{
		Use:           "dictype",
		Short:         "Dictation and translation trainer for English sentences",
		SilenceUsage:  true,
		SilenceErrors: false,
		RunE:          runPracticeCmd,
	}

	rootCmd.Flags().StringVar(&practiceType, "type", defaultType, "practice type: dictation or translation")
	rootCmd.Flags().StringVar(&practiceLibrary, "library", "", "start right away with this library (id or name)")
	rootCmd.Flags().IntVar(&practiceAdvanceDelay, "advance-delay", defaultAdvanceDelayMs, "pause after a correct answer in ms")
	rootCmd.Flags().BoolVar(&practiceNoSpeech, "no-speech", false, "disable spoken prompts")
	rootCmd.Flags().BoolVar(&practiceNoAudio, "no-audio", false, "disable typing sounds and the bell")

	rootCmd.AddCommand(newConfigCmd())
	rootCmd.AddCommand(newImportCmd())
	rootCmd.AddCommand(newExportCmd())
	rootCmd.AddCommand(newLibsCmd())
	rootCmd.AddCommand(newWrongCmd())
	rootCmd.AddCommand(newStatsCmd())

	return rootCmd
}

func runPracticeCmd(cmd *cobra.Command, _ []string) error {
	fileCfg, err := loadConfig()
	if err != nil {
		return err
	}
	applyStringConfig(cmd, "type", &practiceType, fileCfg.Practice.Type)
	applyStringConfig(cmd, "library", &practiceLibrary, fileCfg.Practice.Library)
	applyIntConfig(cmd, "advance-delay", &practiceAdvanceDelay, fileCfg.Practice.AdvanceDelayMs)
	applyDisabledConfig(cmd, "no-speech", &practiceNoSpeech, fileCfg.Speech.Enabled)
	applyDisabledConfig(cmd, "no-audio", &practiceNoAudio, fileCfg.Audio.Enabled)

	cfg, err := buildConfig(fileCfg)
	if err != nil {
		return err
	}

	ctx := context.Background()
	rt, err := openRuntime(ctx, fileCfg, true)
	if err != nil {
		return err
	}
	defer rt.Close()

	libraryID := ""
	if cfg.Library != "" {
		lib, err := resolveLibrary(ctx, rt.libs, cfg.Library)
		if err != nil {
			return err
		}
		libraryID = lib.ID
	}

	var speaker speech.Speaker = speech.Nop{}
	if cfg.SpeechEnabled {
		command := speech.NewCommand(cfg.SpeechCommand, cfg.SpeechArgs, nil, rt.log)
		defer command.Stop()
		speaker = command
	}

	var cues audio.Player = audio.Nop{}
	var sounds *audio.Subsystem
	if cfg.AudioEnabled {
		sounds = audio.New(audio.Options{
			Bell:     cfg.AudioBell,
			Player:   cfg.AudioPlayer,
			Sounds:   cueSounds(cfg.AudioSounds),
			PoolSize: cfg.AudioPoolSize,
			Logger:   rt.log,
		})
		defer sounds.Wait()
		cues = sounds
	}

	deps := session.Deps{
		Items:       rt.libs,
		Checkpoints: rt.checks,
		Cues:        cues,
		Speech:      speaker,
		Shuffler:    queue.New(),
		Options: session.Options{
			AdvanceDelay:  cfg.AdvanceDelay,
			RollbackDelay: cfg.RollbackDelay,
			SpeakDelay:    cfg.SpeakDelay,
		},
		Logger: rt.log,
	}
	uiDeps := tui.Deps{
		Libraries:   rt.libs,
		Checkpoints: rt.checks,
		Speech:      speaker,
		Logger:      rt.log,
	}
	if rt.history != nil {
		deps.History = rt.history
		uiDeps.History = rt.history
	}
	if sounds != nil {
		uiDeps.Audio = sounds
	}
	uiDeps.Engine = session.New(deps)

	m := tui.NewModel(uiDeps, tui.Options{PracticeType: cfg.Type, Library: libraryID})
	program := tea.NewProgram(m, tea.WithAltScreen(), tea.WithReportFocus())
	if _, err := program.Run(); err != nil {
		return fmt.Errorf("failed to run TUI: %w", err)
	}
	return nil
}

// buildConfig merges flags and file values into the practice settings.
func buildConfig(fileCfg config.FileConfig) (model.Config, error) {
	practice, ok := model.ParsePracticeType(practiceType)
	if !ok {
		return model.Config{}, fmt.Errorf("--type must be %s or %s", model.Dictation, model.Translation)
	}
	cfg := model.Config{
		Type:          practice,
		Library:       strings.TrimSpace(practiceLibrary),
		AdvanceDelay:  time.Duration(practiceAdvanceDelay) * time.Millisecond,
		RollbackDelay: msOrDefault(fileCfg.Practice.RollbackDelayMs, defaultRollbackDelayMs),
		SpeakDelay:    msOrDefault(fileCfg.Practice.SpeakDelayMs, defaultSpeakDelayMs),
		SpeechEnabled: !practiceNoSpeech,
		SpeechArgs:    fileCfg.Speech.Args,
		AudioEnabled:  !practiceNoAudio,
		AudioBell:     true,
		AudioSounds:   map[string]string{},
		AudioPoolSize: audio.DefaultPoolSize,
	}
	if fileCfg.Speech.Command != nil {
		cfg.SpeechCommand = *fileCfg.Speech.Command
	}
	if fileCfg.Audio.Bell != nil {
		cfg.AudioBell = *fileCfg.Audio.Bell
	}
	if fileCfg.Audio.Player != nil {
		cfg.AudioPlayer = *fileCfg.Audio.Player
	}
	if fileCfg.Audio.PoolSize != nil {
		cfg.AudioPoolSize = *fileCfg.Audio.PoolSize
	}
	for cue, path := range map[audio.Cue]*string{
		audio.CueType:    fileCfg.Audio.TypeSound,
		audio.CueError:   fileCfg.Audio.ErrorSound,
		audio.CueCorrect: fileCfg.Audio.CorrectSound,
	} {
		if path != nil && *path != "" {
			cfg.AudioSounds[string(cue)] = *path
		}
	}
	if fileCfg.Storage.Backend != nil {
		cfg.StorageBackend = *fileCfg.Storage.Backend
	}
	if fileCfg.Storage.Path != nil {
		cfg.DataDir = *fileCfg.Storage.Path
	}
	return cfg, validateConfig(cfg)
}

func validateConfig(cfg model.Config) error {
	if cfg.AdvanceDelay < 0 {
		return fmt.Errorf("--advance-delay must be >= 0")
	}
	if cfg.RollbackDelay < 0 {
		return fmt.Errorf("rollback-delay-ms must be >= 0")
	}
	if cfg.SpeakDelay < 0 {
		return fmt.Errorf("speak-delay-ms must be >= 0")
	}
	if cfg.AudioPoolSize <= 0 {
		return fmt.Errorf("pool-size must be > 0")
	}
	return nil
}

func msOrDefault(value *int, def int) time.Duration {
	if value == nil {
		return time.Duration(def) * time.Millisecond
	}
	return time.Duration(*value) * time.Millisecond
}

func cueSounds(sounds map[string]string) map[audio.Cue]string {
	out := make(map[audio.Cue]string, len(sounds))
	for cue, path := range sounds {
		out[audio.Cue(cue)] = path
	}
	return out
}

// resolveLibrary finds a library by id or, ignoring case, by name.
func resolveLibrary(ctx context.Context, libs *library.Store, ref string) (model.Library, error) {
	all, err := libs.Libraries(ctx)
	if err != nil {
		return model.Library{}, err
	}
	for _, lib := range all {
		if lib.ID == ref {
			return lib, nil
		}
	}
	for _, lib := range all {
		if strings.EqualFold(strings.TrimSpace(lib.Name), strings.TrimSpace(ref)) {
			return lib, nil
		}
	}
	return model.Library{}, fmt.Errorf("%w: %s (run: dictype libs)", library.ErrLibraryNotFound, ref)
}

func newConfigCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "config",
		Short: "Create/open config file",
		Args:  cobra.NoArgs,
		RunE:  runConfigCmd,
	}
}

func runConfigCmd(_ *cobra.Command, _ []string) error {
	path := config.DefaultConfigPath()
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		return fmt.Errorf("failed to create config directory: %w", err)
	}
	if _, err := os.Stat(path); err != nil {
		if !os.IsNotExist(err) {
			return fmt.Errorf("failed to stat config: %w", err)
		}
		if err := os.WriteFile(path, []byte(defaultConfigTemplate()), 0o644); err != nil {
			return fmt.Errorf("failed to write config: %w", err)
		}
	}

	editor := strings.TrimSpace(os.Getenv("EDITOR"))
	if editor == "" {
		editor = "vi"
	}
	parts := strings.Fields(editor)
	cmd := exec.Command(parts[0], append(parts[1:], path)...)
	cmd.Stdin = os.Stdin
	cmd.Stdout = os.Stdout
	cmd.Stderr = os.Stderr
	if err := cmd.Run(); err != nil {
		return fmt.Errorf("failed to open editor: %w", err)
	}
	return nil
}

func newImportCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "import <file>",
		Short: "Import libraries from a JSON export or an English/Chinese text file",
		Args:  cobra.ExactArgs(1),
		RunE:  runImportCmd,
	}
	cmd.Flags().StringVar(&importName, "name", "", "library name for text files (default: file name)")
	return cmd
}

func runImportCmd(cmd *cobra.Command, args []string) error {
	libs, err := importer.ReadLibraryFile(args[0], strings.TrimSpace(importName))
	if err != nil {
		return fmt.Errorf("failed to read %s: %w", args[0], err)
	}
	return withRuntime(func(ctx context.Context, rt *runtime) error {
		res, err := rt.libs.Import(ctx, libs)
		if err != nil {
			return fmt.Errorf("failed to import: %w", err)
		}
		out := cmd.OutOrStdout()
		if _, err := fmt.Fprintf(out, "Imported %d libraries with %d items", res.Libraries, res.Items); err != nil {
			return err
		}
		if res.WrongItems > 0 {
			if _, err := fmt.Fprintf(out, " and %d wrong answers", res.WrongItems); err != nil {
				return err
			}
		}
		if _, err := fmt.Fprintln(out); err != nil {
			return err
		}
		for _, name := range res.Skipped {
			logErrf("Skipped %q: a library with that name exists\n", name)
		}
		return nil
	})
}

func newExportCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "export <file>",
		Short: "Export all libraries as JSON (use - for stdout)",
		Args:  cobra.ExactArgs(1),
		RunE:  runExportCmd,
	}
}

func runExportCmd(cmd *cobra.Command, args []string) error {
	return withRuntime(func(ctx context.Context, rt *runtime) error {
		libs, err := rt.libs.Libraries(ctx)
		if err != nil {
			return err
		}
		if args[0] == "-" {
			return importer.ExportJSON(cmd.OutOrStdout(), libs)
		}
		f, err := os.Create(args[0])
		if err != nil {
			return fmt.Errorf("failed to create %s: %w", args[0], err)
		}
		if err := importer.ExportJSON(f, libs); err != nil {
			_ = f.Close()
			return fmt.Errorf("failed to write %s: %w", args[0], err)
		}
		if err := f.Close(); err != nil {
			return err
		}
		logErrf("Wrote %d libraries to %s\n", len(libs), args[0])
		return nil
	})
}

func newLibsCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "libs",
		Short: "List libraries",
		Args:  cobra.NoArgs,
		RunE:  runLibsCmd,
	}
}

func runLibsCmd(cmd *cobra.Command, _ []string) error {
	return withRuntime(func(ctx context.Context, rt *runtime) error {
		libs, err := rt.libs.Libraries(ctx)
		if err != nil {
			return err
		}
		rows := make([][]string, 0, len(libs))
		for _, lib := range libs {
			rows = append(rows, []string{
				lib.ID,
				lib.Name,
				fmt.Sprintf("%d", lib.CountType(model.ItemSentence)),
				fmt.Sprintf("%d", lib.CountType(model.ItemWord)),
			})
		}
		return stats.WriteTable(cmd.OutOrStdout(), stats.Table{
			Headers: []string{"ID", "Name", "Sentences", "Words"},
			Rows:    rows,
			Right:   map[int]bool{2: true, 3: true},
			MaxCell: 40,
		})
	})
}

func newWrongCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "wrong",
		Short: "List or remove wrong answers",
		Args:  cobra.NoArgs,
		RunE:  runWrongCmd,
	}
	cmd.Flags().StringVar(&wrongRemove, "remove", "", "remove the entry with this id (or unique id prefix)")
	return cmd
}

func runWrongCmd(cmd *cobra.Command, _ []string) error {
	return withRuntime(func(ctx context.Context, rt *runtime) error {
		wrong, err := rt.libs.Library(ctx, model.WrongLibraryID)
		if err != nil {
			return err
		}
		if wrongRemove != "" {
			id, err := matchItemID(wrong.Items, wrongRemove)
			if err != nil {
				return err
			}
			if _, err := rt.libs.RemoveWrongItem(ctx, id); err != nil {
				return fmt.Errorf("failed to remove %s: %w", id, err)
			}
			_, err = fmt.Fprintf(cmd.OutOrStdout(), "Removed %s\n", id)
			return err
		}
		if len(wrong.Items) == 0 {
			_, err := fmt.Fprintln(cmd.OutOrStdout(), "No wrong answers.")
			return err
		}
		rows := make([][]string, 0, len(wrong.Items))
		for _, item := range wrong.Items {
			rows = append(rows, []string{shortID(item.ID), item.English, item.Chinese, item.SourceLibraryName})
		}
		return stats.WriteTable(cmd.OutOrStdout(), stats.Table{
			Headers: []string{"ID", "English", "Chinese", "From"},
			Rows:    rows,
			MaxCell: 40,
		})
	})
}

func shortID(id string) string {
	if len(id) > 8 {
		return id[:8]
	}
	return id
}

func matchItemID(items []model.Item, ref string) (string, error) {
	var matches []string
	for _, item := range items {
		if item.ID == ref {
			return item.ID, nil
		}
		if strings.HasPrefix(item.ID, ref) {
			matches = append(matches, item.ID)
		}
	}
	switch len(matches) {
	case 0:
		return "", fmt.Errorf("no wrong answer with id %q", ref)
	case 1:
		return matches[0], nil
	default:
		return "", fmt.Errorf("id prefix %q is ambiguous", ref)
	}
}

func newStatsCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "stats",
		Short: "Show practice history",
		Args:  cobra.NoArgs,
		RunE:  runStatsCmd,
	}
	cmd.Flags().StringVar(&statsLibrary, "library", "", "library filter (id or name)")
	cmd.Flags().StringVar(&statsSince, "since", "", "start date (YYYY-MM-DD)")
	cmd.Flags().IntVar(&statsLast, "last", 0, "limit to last N sessions")
	cmd.Flags().IntVar(&statsWindow, "window", defaultStatsWindow, "moving average window")
	return cmd
}

func runStatsCmd(cmd *cobra.Command, _ []string) error {
	filter := model.HistoryFilter{Last: statsLast, Window: statsWindow}
	if statsSince != "" {
		parsed, err := time.ParseInLocation("2006-01-02", statsSince, time.Local)
		if err != nil {
			return fmt.Errorf("invalid --since value: %w", err)
		}
		filter.Since = &parsed
	}
	if statsLast < 0 || statsWindow < 0 {
		return errors.New("--last and --window must be >= 0")
	}

	return withRuntime(func(ctx context.Context, rt *runtime) error {
		if rt.history == nil {
			return errors.New("practice history is not kept with the memory storage backend")
		}
		if statsLibrary != "" {
			lib, err := resolveLibrary(ctx, rt.libs, statsLibrary)
			if err != nil {
				return err
			}
			filter.LibraryID = lib.ID
		}
		report, err := stats.BuildReport(ctx, rt.history, filter)
		if err != nil {
			return fmt.Errorf("failed to load history: %w", err)
		}
		return renderReport(cmd.OutOrStdout(), report, filter.Window)
	})
}

func renderReport(w io.Writer, report stats.Report, window int) error {
	if err := stats.RenderSummary(w, report.Sessions); err != nil {
		return err
	}
	if len(report.Sessions) == 0 {
		return nil
	}
	if err := stats.RenderCurves(w, report.Sessions, window, stats.TerminalWidth(), stats.ShouldUseColor(w)); err != nil {
		return err
	}
	if err := stats.RenderSessions(w, report.Sessions, defaultStatsSessions); err != nil {
		return err
	}
	if err := stats.RenderWeakChars(w, report.WeakChars); err != nil {
		return err
	}
	return stats.RenderCharTable(w, report.CharAggsAll, defaultStatsChars)
}

// withRuntime runs fn against the configured stores, logging to stderr.
func withRuntime(fn func(ctx context.Context, rt *runtime) error) error {
	cfg, err := loadConfig()
	if err != nil {
		return err
	}
	ctx := context.Background()
	rt, err := openRuntime(ctx, cfg, false)
	if err != nil {
		return err
	}
	defer rt.Close()
	return fn(ctx, rt)
}

func applyStringConfig(cmd *cobra.Command, name string, target, value *string) {
	if value == nil {
		return
	}
	if cmd.Flags().Changed(name) {
		return
	}
	*target = *value
}

func applyIntConfig(cmd *cobra.Command, name string, target, value *int) {
	if value == nil {
		return
	}
	if cmd.Flags().Changed(name) {
		return
	}
	*target = *value
}

// applyDisabledConfig maps an "enabled" file setting onto a --no-x flag.
func applyDisabledConfig(cmd *cobra.Command, name string, target, enabled *bool) {
	if enabled == nil {
		return
	}
	if cmd.Flags().Changed(name) {
		return
	}
	*target = !*enabled
}

func defaultConfigTemplate() string {
	return fmt.Sprintf(`# dictype configuration
# Uncomment a value to enable it. CLI flags override config values.

[practice]
# type = %q              # dictation or translation
# library = ""                  # Library id or name to start with
# advance-delay-ms = %d        # Pause after a correct answer
# rollback-delay-ms = %d       # How long a rejected character stays visible
# speak-delay-ms = %d          # Pause before a dictation prompt is spoken

[speech]
# enabled = true
# command = %q
# args = [%s]

[audio]
# enabled = true
# bell = true                   # Ring the terminal bell on mistakes
# player = "paplay"             # Program that plays the sound files below
# type-sound = ""
# error-sound = ""
# correct-sound = ""
# pool-size = %d

[storage]
# backend = "sqlite"            # sqlite, diskv or memory
# path = ""                     # Data directory

[log]
# level = "info"
# file = ""
`,
		defaultType,
		defaultAdvanceDelayMs,
		defaultRollbackDelayMs,
		defaultSpeakDelayMs,
		speech.DefaultCommand,
		quoteArgs(speech.DefaultArgs),
		audio.DefaultPoolSize,
	)
}

func quoteArgs(args []string) string {
	quoted := make([]string, len(args))
	for i, a := range args {
		quoted[i] = fmt.Sprintf("%q", a)
	}
	return strings.Join(quoted, ", ")
}

func logErrf(format string, args ...any) {
	if _, err := fmt.Fprintf(os.Stderr, format, args...); err != nil {
		// Best-effort logging to stderr.
		_ = err
	}
}
