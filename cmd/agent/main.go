package main

import (
	"context"
	"flag"
	"fmt"
	"log"
	"os"
	"os/signal"
	"strconv"
	"syscall"
	"time"

	"llm-tick-trader/internal/llm"
	"llm-tick-trader/internal/logger"
	"llm-tick-trader/internal/store"
	"llm-tick-trader/internal/style"
	"llm-tick-trader/internal/trace"
	"llm-tick-trader/internal/transport"
	"llm-tick-trader/internal/worker"

	"github.com/joho/godotenv"
)

func must(err error) {
	if err != nil {
		log.Fatal(err)
	}
}

func main() {
	_ = godotenv.Load()

	var (
		port      = flag.Int("port", envInt("AGENT_PORT", 0), "port to serve decision requests on")
		cfgPath   = flag.String("config", "model_config.yaml", "model bindings file")
		styleText = flag.String("style", "", "trading style text")
		styleFile = flag.String("style-file", "", "file holding the trading style")
		prompt    = flag.String("prompt", "", "run one completion against --model-id and exit")
		modelID   = flag.String("model-id", "", "model id for --prompt mode")
	)
	flag.Parse()

	if *port == 0 {
		log.Fatal("missing --port (or AGENT_PORT)")
	}

	must(logger.Init())
	must(trace.Init())

	bindings, err := store.LoadBindings(*cfgPath, *port)
	must(err)

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	if *prompt != "" {
		must(runOnce(ctx, bindings, *modelID, *prompt))
		return
	}

	styleResolved, err := style.Resolve(*styleText, *styleFile, os.Stdin, os.Stdout)
	must(err)

	host := worker.NewHost()
	for _, b := range bindings {
		completer, err := llm.NewCompleter(b)
		must(err)
		host.Register(b.ModelID, worker.New(b, styleResolved, completer))
	}
	logger.Info(ctx, "Agent serving", "port", *port, "models", host.ModelIDs())

	srv := transport.NewServer(fmt.Sprintf(":%d", *port), host)
	errc := make(chan error, 1)
	go func() { errc <- srv.ListenAndServe() }()

	sigc := make(chan os.Signal, 1)
	signal.Notify(sigc, syscall.SIGINT, syscall.SIGTERM)

	select {
	case err := <-errc:
		must(err)
	case <-sigc:
		logger.Info(ctx, "Shutting down agent")
	}

	shutCtx, shutCancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer shutCancel()
	_ = srv.Shutdown(shutCtx)
	_ = trace.Shutdown(shutCtx)
}

// runOnce sends one prompt straight to the completer and prints both the raw
// text and what the instruction parser makes of it. Useful for checking a
// binding before wiring it into a trader.
func runOnce(ctx context.Context, bindings []store.ModelBinding, modelID, prompt string) error {
	var binding *store.ModelBinding
	for i := range bindings {
		if modelID == "" || bindings[i].ModelID == modelID {
			binding = &bindings[i]
			break
		}
	}
	if binding == nil {
		return fmt.Errorf("no binding for model id %q", modelID)
	}

	completer, err := llm.NewCompleter(*binding)
	if err != nil {
		return err
	}
	text, err := completer.Complete(ctx, prompt, binding.MaxTokens)
	if err != nil {
		return err
	}
	fmt.Println(text)

	if inst, err := worker.Parse(text, ""); err != nil {
		fmt.Printf("parse: %v\n", err)
	} else {
		fmt.Printf("parsed: cmd=%s target_pos=%.4f\n", inst.Cmd, inst.TargetPos)
	}
	return nil
}

func envInt(key string, def int) int {
	if v := os.Getenv(key); v != "" {
		if n, err := strconv.Atoi(v); err == nil {
			return n
		}
	}
	return def
}
