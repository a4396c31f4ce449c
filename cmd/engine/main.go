package main

import (
	"bufio"
	"encoding/json"
	"flag"
	"fmt"
	"log"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/danielpatrickdp/task-policy/go-engine/internal/baseline"
	"github.com/danielpatrickdp/task-policy/go-engine/internal/config"
	"github.com/danielpatrickdp/task-policy/go-engine/internal/engine"
	"github.com/danielpatrickdp/task-policy/go-engine/internal/feature"
)

// #region main
func main() {
	configPath := flag.String("config", "", "path to engine config YAML (optional)")
	flag.Parse()

	cfg := config.Default()
	if *configPath != "" {
		loaded, err := config.Load(*configPath)
		if err != nil {
			log.Fatalf("failed to load config: %v", err)
		}
		cfg = loaded
	}
	if v := envOr("POLICY_DB", ""); v != "" {
		cfg.DBPath = v
	}

	// A corrupt or unopenable database degrades to in-memory operation
	// inside Open; only invalid configuration is fatal.
	eng, err := engine.Open(cfg)
	if err != nil {
		log.Fatalf("failed to create engine: %v", err)
	}
	defer eng.Close()

	// Periodic background save; the engine stays correct without it, a crash
	// just loses updates since the last snapshot.
	if cfg.SaveIntervalSeconds > 0 {
		ticker := time.NewTicker(time.Duration(cfg.SaveIntervalSeconds) * time.Second)
		defer ticker.Stop()
		go func() {
			for range ticker.C {
				if err := eng.Save(); err != nil {
					log.Printf("periodic save failed: %v", err)
				}
			}
		}()
	}

	fmt.Println("Task Policy Engine ready.")
	fmt.Printf("  DB: %s | alpha: %.2f | epsilon: %.2f\n", cfg.DBPath, cfg.LearningRate, cfg.Epsilon)
	fmt.Println("Type a command, 'rate N' to score the last one, 'metrics', 'policy', 'save', or 'quit':")

	scanner := bufio.NewScanner(os.Stdin)
	lastCommand := ""
	userID := envOr("POLICY_USER", "local")

	for {
		fmt.Print("> ")
		if !scanner.Scan() {
			break
		}
		line := strings.TrimSpace(scanner.Text())
		if line == "" {
			continue
		}
		if line == "quit" || line == "exit" {
			break
		}

		switch {
		case strings.HasPrefix(line, "rate "):
			if lastCommand == "" {
				fmt.Println("nothing to rate yet")
				continue
			}
			rating, err := strconv.Atoi(strings.TrimSpace(strings.TrimPrefix(line, "rate ")))
			if err != nil {
				fmt.Println("usage: rate <1-5>")
				continue
			}
			if err := eng.SubmitFeedback(lastCommand, rating, userID); err != nil {
				fmt.Printf("feedback error: %v\n", err)
				continue
			}
			eng.DecayExploration(cfg.EpsilonDecay, cfg.MinEpsilon)
			fmt.Println("feedback applied")

		case line == "metrics":
			printJSON(eng.Metrics())

		case line == "policy":
			printJSON(eng.PolicySnapshot())

		case line == "save":
			if err := eng.Save(); err != nil {
				fmt.Printf("save error: %v\n", err)
				continue
			}
			fmt.Println("model saved")

		default:
			baseIntent, baseConf := baseline.Classify(line)
			d := eng.Decide(line, feature.Context{}, baseIntent, baseConf)
			id := eng.RecordDecision(line, feature.Context{}, d.Intent, "", userID)
			lastCommand = line
			fmt.Printf("intent=%s confidence=%.2f source=%s state=%q id=%s\n",
				d.Intent, d.Confidence, d.Source, d.State, shortID(id))
		}
	}
}

// #endregion main

// #region helpers
func envOr(key, fallback string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}
	return fallback
}

func printJSON(v interface{}) {
	data, err := json.MarshalIndent(v, "", "  ")
	if err != nil {
		fmt.Printf("marshal error: %v\n", err)
		return
	}
	fmt.Println(string(data))
}

func shortID(id string) string {
	if len(id) > 8 {
		return id[:8]
	}
	return id
}

// #endregion helpers
