package main

import (
	"bufio"
	"context"
	"errors"
	"fmt"
	"io"
	"os"
	"os/signal"
	"strings"
	"sync"
	"syscall"

	"github.com/randalmurphal/topicbus/pkg/topicbus"
	"github.com/randalmurphal/topicbus/pkg/topicbus/deadletter"
	"github.com/randalmurphal/topicbus/pkg/topicbus/observability"
	"github.com/spf13/cobra"
)

// stopLine is the stdin line that sends a stop signal.
const stopLine = "!stop"

func pipeCmd() *cobra.Command {
	var dbPath string

	cmd := &cobra.Command{
		Use:   "pipe",
		Short: "Route stdin lines to per-topic printers",
		Long: `Reads lines from stdin and routes each to its topic. A line is either
"topic<TAB>payload" or a bare payload for the default topic. The line "!stop"
sends a stop signal; end of input closes the ingress channel.

Every registered topic gets one subscriber that prints "topic<TAB>payload".`,
		RunE: func(cmd *cobra.Command, args []string) error {
			ctx, stop := signal.NotifyContext(cmd.Context(), os.Interrupt, syscall.SIGTERM)
			defer stop()
			return runPipe(ctx, cmd.InOrStdin(), cmd.OutOrStdout(), dbPath)
		},
	}

	cmd.Flags().StringVar(&dbPath, "db", "", "dead-letter journal path (overrides dead_letters in config)")
	return cmd
}

func runPipe(ctx context.Context, in io.Reader, out io.Writer, dbPath string) error {
	cfg, err := loadConfig()
	if err != nil {
		return err
	}
	specs, err := cfg.Topics()
	if err != nil {
		return err
	}

	routerCfg := topicbus.RouterConfig{
		Logger:      logger,
		Metrics:     observability.NewMetricsRecorder(),
		Spans:       observability.NewSpanManager(),
		CloseOnStop: cfg.CloseOnStop(),
	}

	if dbPath == "" {
		dbPath = cfg.DeadLetterPath()
	}
	if dbPath != "" {
		store, err := deadletter.NewSQLiteStore(dbPath)
		if err != nil {
			return err
		}
		defer store.Close()
		routerCfg.DeadLetters = store
	}

	router, err := topicbus.NewRouterWithTopics[string](routerCfg, specs)
	if err != nil {
		return err
	}

	printer := &linePrinter{w: out}
	var wg sync.WaitGroup
	for _, name := range router.Topics() {
		rx, err := router.Subscribe(name)
		if err != nil {
			router.Close()
			return err
		}
		wg.Add(1)
		go func() {
			defer wg.Done()
			printer.drain(rx)
		}()
	}

	ingress := make(chan topicbus.Envelope[string], cfg.IngressBuffer())
	go feed(ctx, in, ingress)

	reason, err := router.Run(ingress)
	// Printers exit once their topic is closed and drained.
	router.Close()
	wg.Wait()
	if err != nil {
		return err
	}

	logger.Debug("pipe finished", "reason", reason.String())
	return nil
}

// feed is the only writer of ingress.
func feed(ctx context.Context, in io.Reader, ingress chan<- topicbus.Envelope[string]) {
	lines := make(chan string)
	go func() {
		defer close(lines)
		scanner := bufio.NewScanner(in)
		for scanner.Scan() {
			select {
			case lines <- scanner.Text():
			case <-ctx.Done():
				return
			}
		}
		if err := scanner.Err(); err != nil {
			logger.Error("read input", "error", err)
		}
	}()

	for {
		select {
		case <-ctx.Done():
			ingress <- topicbus.StopSignal[string]("")
			return
		case line, ok := <-lines:
			if !ok {
				close(ingress)
				return
			}
			if line == stopLine {
				ingress <- topicbus.StopSignal[string]("")
				return
			}
			ingress <- parseLine(line)
		}
	}
}

// parseLine splits "topic<TAB>payload". A line without a tab targets the default topic.
func parseLine(line string) topicbus.Envelope[string] {
	topic, payload, found := strings.Cut(line, "\t")
	if !found {
		return topicbus.New("", line)
	}
	return topicbus.New(topic, payload)
}

type linePrinter struct {
	mu sync.Mutex
	w  io.Writer
}

func (p *linePrinter) drain(rx *topicbus.Receiver[string]) {
	defer rx.Close()
	for {
		env, err := rx.Recv(context.Background())
		var lag *topicbus.LagError
		switch {
		case err == nil:
			data, _ := env.Data()
			p.print(rx.Topic(), data)
		case errors.As(err, &lag):
			logger.Warn("subscriber lagged", "topic", lag.Topic, "skipped", lag.Skipped)
		default:
			return
		}
	}
}

func (p *linePrinter) print(topic, data string) {
	p.mu.Lock()
	defer p.mu.Unlock()
	fmt.Fprintf(p.w, "%s\t%s\n", topic, data)
}
