package main

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"os"
	"sort"
	"time"

	"github.com/spf13/pflag"
	"github.com/spf13/viper"

	"github.com/jwalitptl/healthplus/config"
	"github.com/jwalitptl/healthplus/internal/app"
	"github.com/jwalitptl/healthplus/internal/bootstrap"
	"github.com/jwalitptl/healthplus/internal/model"
	"github.com/jwalitptl/healthplus/pkg/logger"
)

// flagBindings maps client flags onto config keys.
var flagBindings = map[string]string{
	"remote-url": "remote.base_url",
	"anon-key":   "remote.anon_key",
	"store":      "store.driver",
	"log-level":  "log.level",
}

func main() {
	os.Exit(run(os.Args[1:], os.Stdout))
}

// run executes one client session and returns the process exit code. Every
// exit path goes through the deferred Close of the opened store.
func run(args []string, stdout io.Writer) int {
	flags := pflag.NewFlagSet("client", pflag.ContinueOnError)
	configFile := flags.String("config", "", "path to the config file")
	flags.String("remote-url", "", "backend base URL")
	flags.String("anon-key", "", "backend anon key")
	flags.String("store", "", "local store driver (memory, redis)")
	flags.String("log-level", "", "log level")
	email := flags.String("email", "", "sign in with this email before loading")
	password := flags.String("password", "", "password for --email")
	take := flags.String("take", "", "record a dose of this medication id after loading")
	signOut := flags.Bool("sign-out", false, "sign out after printing the summary")
	asJSON := flags.Bool("json", false, "print the snapshot as JSON")
	if err := flags.Parse(args); err != nil {
		return 2
	}

	v := viper.New()
	for name, key := range flagBindings {
		if f := flags.Lookup(name); f != nil && f.Changed {
			if err := v.BindPFlag(key, f); err != nil {
				fmt.Fprintln(os.Stderr, err)
				return 1
			}
		}
	}

	cfg, err := config.Load(v, *configFile)
	if err != nil {
		fmt.Fprintf(os.Stderr, "failed to load configuration: %v\n", err)
		return 1
	}
	logCfg := cfg.Log.ToLoggerConfig()
	logCfg.Output = os.Stderr
	log := logger.NewLogger(logCfg)

	ctx, cancel := context.WithTimeout(context.Background(), time.Minute)
	defer cancel()

	a, err := app.Open(ctx, cfg, log, nil)
	if err != nil {
		log.Error(err, "failed to open client")
		return 1
	}
	defer func() {
		if err := a.Close(); err != nil {
			log.Error(err, "failed to close local store")
		}
	}()

	// Signing in before the first bootstrap keeps the demo identity from
	// taking precedence over the backend account.
	var snapshot bootstrap.Snapshot
	if *email != "" {
		if _, err := a.SignIn(ctx, model.SignInInput{Email: *email, Password: *password}); err != nil {
			log.Error(err, "sign-in failed")
			return 1
		}
		snapshot = a.Reconciler.Snapshot()
	} else {
		snapshot = a.Bootstrap(ctx)
	}

	if *take != "" {
		result, err := a.Medications.RecordTaken(ctx, *take, nil)
		if err != nil {
			log.Error(err, "failed to record dose", "medication_id", *take)
			return 1
		}
		fmt.Fprintf(stdout, "recorded dose of %s, adherence now %d%%\n", *take, result.Adherence)
		snapshot = a.Reconciler.Refresh(ctx)
	}

	if *asJSON {
		enc := json.NewEncoder(stdout)
		enc.SetIndent("", "  ")
		if err := enc.Encode(snapshot); err != nil {
			log.Error(err, "failed to encode snapshot")
			return 1
		}
	} else {
		printSummary(stdout, snapshot, a.HealthCheck(ctx))
	}

	if *signOut {
		if err := a.SignOut(ctx); err != nil {
			log.Error(err, "sign-out failed")
			return 1
		}
		fmt.Fprintln(stdout, "signed out")
	}
	return 0
}

func printSummary(w io.Writer, s bootstrap.Snapshot, health model.HealthStatus) {
	fmt.Fprintf(w, "backend: %s\n", health.Status)
	if s.Session != nil {
		mode := "remote"
		if s.Session.LocalOnly {
			mode = "local-only"
		}
		fmt.Fprintf(w, "session: %s <%s> (%s)\n", s.Session.Identity.Name, s.Session.Identity.Email, mode)
	}
	fmt.Fprintf(w, "phase: %s (%s)\n\n", s.Phase, s.DataPhase)

	fmt.Fprintf(w, "medications (%d)\n", len(s.Medications))
	for _, m := range s.Medications {
		fmt.Fprintf(w, "  %-6s %-12s %-8s next %s  adherence %3d%%  pills %d\n",
			m.ID, m.Name, m.Dosage, m.NextDoseAt.Local().Format("Jan 2 15:04"), m.Adherence, m.PillCount)
	}
	fmt.Fprintf(w, "notifications (%d)\n", len(s.Notifications))
	for _, n := range s.Notifications {
		read := " "
		if n.Read {
			read = "x"
		}
		fmt.Fprintf(w, "  [%s] %-7s %s\n", read, n.Priority, n.Title)
	}
	fmt.Fprintf(w, "health data (%d), documents (%d), family links (%d)\n\n",
		len(s.HealthData), len(s.Documents), len(s.FamilyLinks))

	entities := make([]string, 0, len(s.Status))
	for e := range s.Status {
		entities = append(entities, string(e))
	}
	sort.Strings(entities)
	for _, e := range entities {
		st := s.Status[bootstrap.Entity(e)]
		line := fmt.Sprintf("  %-13s %s", e, st.Source)
		if st.Kept {
			line += " (kept held data)"
		}
		if st.Error != "" {
			line += " error: " + st.Error
		}
		fmt.Fprintln(w, line)
	}
}
