package main

import (
	"bufio"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"os"
	"strings"
	"time"

	"github.com/spf13/cobra"
	"golang.org/x/sync/errgroup"

	"github.com/tartampluch/go-nlcep/internal/config"
	"github.com/tartampluch/go-nlcep/internal/engine"
	"github.com/tartampluch/go-nlcep/internal/i18n"
	"github.com/tartampluch/go-nlcep/internal/server"
	"github.com/tartampluch/go-nlcep/internal/wire"
)

// cliApp carries the flags and the dependencies built from them for one
// invocation.
type cliApp struct {
	stdin  io.Reader
	stdout io.Writer
	stderr io.Writer

	// Persistent flags
	configPath string
	debug      bool
	now        string
	timezone   string
	lang       string
	logFile    string

	settings   *config.Settings
	location   *time.Location
	translator *i18n.Translator
	parser     *engine.Parser
	logger     *slog.Logger
	logCloser  io.Closer
}

func (a *cliApp) rootCmd() *cobra.Command {
	root := &cobra.Command{
		Use:               config.AppName,
		Short:             config.CmdRootShort,
		Long:              config.AppLongName,
		Version:           config.Version,
		SilenceUsage:      true,
		SilenceErrors:     true,
		PersistentPreRunE: func(cmd *cobra.Command, _ []string) error { return a.setup(cmd) },
	}
	root.SetVersionTemplate(config.MsgVersionTemplate)

	pf := root.PersistentFlags()
	pf.StringVar(&a.configPath, config.FlagConfig, "", config.FlagDescConfig)
	pf.BoolVar(&a.debug, config.FlagDebug, false, config.FlagDescDebug)
	pf.StringVar(&a.now, config.FlagNow, "", config.FlagDescNow)
	pf.StringVar(&a.timezone, config.FlagTimezone, "", config.FlagDescTimezone)
	pf.StringVar(&a.lang, config.FlagLang, "", config.FlagDescLang)
	pf.StringVar(&a.logFile, config.FlagLogFile, "", config.FlagDescLogFile)

	root.AddCommand(a.parseCmd(), a.batchCmd(), a.icsCmd(), a.serveCmd())
	return root
}

// setup loads settings, applies flag overrides and builds the shared
// dependencies. Flags win over the settings file and the environment.
func (a *cliApp) setup(cmd *cobra.Command) error {
	s, err := config.Load(a.configPath)
	if err != nil {
		return err
	}
	if a.timezone != "" {
		s.Timezone = a.timezone
	}
	if a.lang != "" {
		s.Language = a.lang
		s.Normalize()
	}
	a.settings = s

	level, err := s.Level()
	if err != nil {
		return err
	}
	a.logger, a.logCloser = setupLogging(a.stderr, level, a.debug, a.logFile)
	logStartupInfo(a.logger)
	s.LogLoaded(a.logger)

	if a.location, err = s.Location(); err != nil {
		return err
	}
	if a.translator, err = i18n.New(a.logger); err != nil {
		return err
	}

	var clock engine.Clock = locationClock{loc: a.location}
	if a.now != "" {
		at, err := time.Parse(config.FormatInstant, a.now)
		if err != nil {
			return fmt.Errorf("%s: %w", config.ErrInstantParse, err)
		}
		clock = engine.FixedClock{At: at}
	}
	a.parser = &engine.Parser{Clock: clock, Logger: a.logger}
	return nil
}

func (a *cliApp) close() {
	if a.logCloser != nil {
		_ = a.logCloser.Close() // Best effort close
	}
}

// locationClock reports the current time in the configured zone, so that
// "today" follows the settings rather than the host zone.
type locationClock struct {
	loc *time.Location
}

func (c locationClock) Now() time.Time {
	return time.Now().In(c.loc)
}

// -----------------------------------------------------------------------------
// parse
// -----------------------------------------------------------------------------

func (a *cliApp) parseCmd() *cobra.Command {
	var asJSON bool

	cmd := &cobra.Command{
		Use:   config.CmdParseUse,
		Short: config.CmdParseShort,
		RunE: func(cmd *cobra.Command, args []string) error {
			input, err := a.sentence(args)
			if err != nil {
				return err
			}

			ev, err := a.parser.Parse(input)
			if asJSON {
				res := wire.FromParse(ev, err, a.translator, a.settings.Language)
				if encErr := json.NewEncoder(a.stdout).Encode(res); encErr != nil {
					return encErr
				}
				return err
			}
			if err != nil {
				renderFailure(a.stderr, wire.NewFailure(err, a.translator, a.settings.Language))
				return err
			}
			renderEvent(a.stdout, ev, a.translator, a.settings.Language)
			return nil
		},
	}
	cmd.Flags().BoolVar(&asJSON, config.FlagJSON, false, config.FlagDescJSON)
	return cmd
}

// sentence joins the arguments into one input, or reads all of stdin when
// there are none.
func (a *cliApp) sentence(args []string) (string, error) {
	input := strings.Join(args, config.ArgSeparator)
	if len(args) == 0 {
		data, err := io.ReadAll(a.stdin)
		if err != nil {
			return "", fmt.Errorf("%s: %w", config.ErrInputRead, err)
		}
		input = strings.TrimSpace(string(data))
	}
	if strings.TrimSpace(input) == "" {
		return "", errors.New(config.ErrInputEmpty)
	}
	return input, nil
}

// -----------------------------------------------------------------------------
// batch
// -----------------------------------------------------------------------------

// batchLine is one JSON line of batch output.
type batchLine struct {
	Line int `json:"line"`
	wire.Result
}

func (a *cliApp) batchCmd() *cobra.Command {
	var file string
	var workers int

	cmd := &cobra.Command{
		Use:   config.CmdBatchUse,
		Short: config.CmdBatchShort,
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			lines, err := a.readLines(file)
			if err != nil {
				return err
			}

			// Every line shares one reference instant.
			now := a.parser.Clock.Now()
			out := make([]batchLine, len(lines))

			g, ctx := errgroup.WithContext(cmd.Context())
			g.SetLimit(max(workers, 1))
			for i, l := range lines {
				g.Go(func() error {
					if err := ctx.Err(); err != nil {
						return err
					}
					ev, err := a.parser.ParseAt(l.text, now)
					out[i] = batchLine{Line: l.number, Result: wire.FromParse(ev, err, a.translator, a.settings.Language)}
					return nil
				})
			}
			if err := g.Wait(); err != nil {
				return err
			}

			failed := 0
			enc := json.NewEncoder(a.stdout)
			for _, bl := range out {
				if !bl.OK {
					failed++
				}
				if err := enc.Encode(bl); err != nil {
					return err
				}
			}

			a.logger.Info(config.MsgBatchDone,
				config.LogKeyComponent, config.CompBatch,
				config.LogKeyLines, len(out),
				config.LogKeyFailed, failed,
			)
			return nil
		},
	}
	cmd.Flags().StringVar(&file, config.FlagFile, "", config.FlagDescFile)
	cmd.Flags().IntVar(&workers, config.FlagWorkers, config.DefaultWorkers, config.FlagDescWorkers)
	return cmd
}

type inputLine struct {
	number int
	text   string
}

// readLines returns the non-blank lines of file (or stdin) with their
// 1-based line numbers.
func (a *cliApp) readLines(file string) ([]inputLine, error) {
	r := a.stdin
	if file != "" {
		f, err := os.Open(file)
		if err != nil {
			return nil, fmt.Errorf("%s: %w", config.ErrInputRead, err)
		}
		defer func() { _ = f.Close() }()
		r = f
	}

	var lines []inputLine
	sc := bufio.NewScanner(r)
	for n := 1; sc.Scan(); n++ {
		if text := strings.TrimSpace(sc.Text()); text != "" {
			lines = append(lines, inputLine{number: n, text: text})
		}
	}
	if err := sc.Err(); err != nil {
		return nil, fmt.Errorf("%s: %w", config.ErrInputRead, err)
	}
	return lines, nil
}

// -----------------------------------------------------------------------------
// ics
// -----------------------------------------------------------------------------

func (a *cliApp) icsCmd() *cobra.Command {
	var file string

	cmd := &cobra.Command{
		Use:   config.CmdICSUse,
		Short: config.CmdICSShort,
		RunE: func(cmd *cobra.Command, args []string) error {
			var lines []inputLine
			if len(args) > 0 {
				lines = []inputLine{{number: 1, text: strings.Join(args, config.ArgSeparator)}}
			} else {
				var err error
				if lines, err = a.readLines(file); err != nil {
					return err
				}
			}

			now := a.parser.Clock.Now()
			var events []engine.ResolvedEvent
			var lastErr error
			for _, l := range lines {
				ev, err := a.parser.ParseAt(l.text, now)
				if err != nil {
					a.logger.Warn(config.ErrBatchLineFailed,
						config.LogKeyComponent, config.CompBatch,
						config.LogKeyLine, l.number,
						config.LogKeyError, err,
					)
					lastErr = err
					continue
				}
				events = append(events, ev)
			}

			if len(events) == 0 {
				if lastErr == nil {
					return errors.New(config.ErrInputEmpty)
				}
				renderFailure(a.stderr, wire.NewFailure(lastErr, a.translator, a.settings.Language))
				return lastErr
			}

			data, err := engine.EncodeICS(events, now.Location(), now)
			if err != nil {
				return err
			}
			_, err = a.stdout.Write(data)
			return err
		},
	}
	cmd.Flags().StringVar(&file, config.FlagFile, "", config.FlagDescFile)
	return cmd
}

// -----------------------------------------------------------------------------
// serve
// -----------------------------------------------------------------------------

func (a *cliApp) serveCmd() *cobra.Command {
	var listen string

	cmd := &cobra.Command{
		Use:   config.CmdServeUse,
		Short: config.CmdServeShort,
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			if listen == "" {
				listen = a.settings.Listen
			}
			srv := server.NewParseServer(listen, a.location, a.translator, a.logger)
			srv.Clock = a.parser.Clock
			if err := srv.Start(cmd.Context()); err != nil {
				return err
			}
			a.logger.Info(config.MsgAppStop, config.LogKeyComponent, config.CompMain)
			return nil
		},
	}
	cmd.Flags().StringVar(&listen, config.FlagListen, "", config.FlagDescListen)
	return cmd
}
