// Package main provides the command line client for the hiitbox server.
package main

import (
	"context"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"sort"
	"syscall"

	"github.com/alecthomas/kingpin/v2"
	"github.com/joho/godotenv"

	apiconnect "github.com/osa030/hiitbox/internal/api/connect"
)

var (
	app    = kingpin.New("hiitcli", "hiitbox interval training client")
	server = app.Flag("server", "Server address").Default("http://localhost:8080").String()
	token  = app.Flag("token", "Control token (or set HIIT_CONTROL_TOKEN env)").Envar("HIIT_CONTROL_TOKEN").String()

	startCmd  = app.Command("start", "Start or continue the session")
	pauseCmd  = app.Command("pause", "Pause the session")
	resetCmd  = app.Command("reset", "Reset the session")
	statusCmd = app.Command("status", "Get session status")

	configureCmd    = app.Command("configure", "Change the workout configuration")
	configureHigh   = newSettable(configureCmd.Flag("high", "High intensity seconds (1-100)"))
	configureLow    = newSettable(configureCmd.Flag("low", "Low intensity seconds (1-100)"))
	configureCycles = newSettable(configureCmd.Flag("cycles", "Number of cycles (1-50)"))

	watchCmd = app.Command("watch", "Watch session notifications")
)

func main() {
	// Load .env file if it exists (errors are ignored)
	_ = godotenv.Load()

	command := kingpin.MustParse(app.Parse(os.Args[1:]))

	client := apiconnect.NewClient(http.DefaultClient, *server, *token)
	ctx := context.Background()

	switch command {
	case startCmd.FullCommand():
		runCommand(ctx, "start", client.Start)
	case pauseCmd.FullCommand():
		runCommand(ctx, "pause", client.Pause)
	case resetCmd.FullCommand():
		runCommand(ctx, "reset", client.Reset)
	case statusCmd.FullCommand():
		status(ctx, client)
	case configureCmd.FullCommand():
		configure(ctx, client)
	case watchCmd.FullCommand():
		watch(ctx, client)
	}
}

func runCommand(ctx context.Context, name string, fn func(context.Context) (bool, error)) {
	changed, err := fn(ctx)
	exitOnError(err)
	if changed {
		fmt.Printf("%s: ok\n", name)
	} else {
		fmt.Printf("%s: no change\n", name)
	}
}

func status(ctx context.Context, client *apiconnect.Client) {
	st, err := client.GetStatus(ctx)
	exitOnError(err)

	fmt.Printf("Session:   %v\n", st["session_id"])
	fmt.Printf("State:     %v\n", st["state"])
	fmt.Printf("Phase:     %v %v\n", st["phase"], st["phase_label"])
	fmt.Printf("Cycle:     %v\n", st["cycle_index"])
	fmt.Printf("Remaining: %v\n", st["countdown_label"])
	if cfg, ok := st["configuration"].(map[string]any); ok {
		fmt.Printf("Workout:   high=%vs low=%vs cycles=%v\n",
			cfg["high_intensity_seconds"], cfg["low_intensity_seconds"], cfg["cycles"])
	}
}

// settableInt is an int flag that remembers whether it was given.
type settableInt struct {
	value *int
	set   bool
}

func newSettable(f *kingpin.FlagClause) *settableInt {
	s := &settableInt{}
	s.value = f.IsSetByUser(&s.set).Int()
	return s
}

// configureFields returns the fields given on the command line. Values are
// sent as typed so the server reports out-of-range selections.
func configureFields(high, low, cycles *settableInt) map[string]any {
	fields := map[string]any{}
	if high.set {
		fields["high_intensity_seconds"] = *high.value
	}
	if low.set {
		fields["low_intensity_seconds"] = *low.value
	}
	if cycles.set {
		fields["cycles"] = *cycles.value
	}
	return fields
}

func configure(ctx context.Context, client *apiconnect.Client) {
	fields := configureFields(configureHigh, configureLow, configureCycles)
	if len(fields) == 0 {
		fmt.Println("Error: nothing to configure (use --high, --low or --cycles)")
		os.Exit(1)
	}

	res, err := client.Configure(ctx, fields)
	exitOnError(err)
	fmt.Printf("Configured: high=%vs low=%vs cycles=%v\n",
		res["high_intensity_seconds"], res["low_intensity_seconds"], res["cycles"])
}

func watch(ctx context.Context, client *apiconnect.Client) {
	ctx, stop := signal.NotifyContext(ctx, syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	stream, err := client.Subscribe(ctx)
	exitOnError(err)
	defer stream.Close()

	fmt.Println("Watching notifications (Ctrl+C to stop)...")
	for stream.Receive() {
		printNotification(stream.Msg().AsMap())
	}
	if err := stream.Err(); err != nil && ctx.Err() == nil {
		exitOnError(err)
	}
}

func printNotification(n map[string]any) {
	switch n["type"] {
	case "tick":
		fmt.Printf("\r[%v] %-14v %v  cycle %v  remaining %v   ",
			n["state"], n["phase"], n["phase_label"], n["cycle_index"], n["countdown_label"])
	case "transition", "command":
		fmt.Printf("\n#%v %v: %v\n", n["sequence_no"], n["type"], n["event"])
	default:
		keys := make([]string, 0, len(n))
		for k := range n {
			keys = append(keys, k)
		}
		sort.Strings(keys)
		fmt.Printf("\n#%v %v:", n["sequence_no"], n["type"])
		for _, k := range keys {
			if k == "sequence_no" || k == "type" {
				continue
			}
			fmt.Printf(" %s=%v", k, n[k])
		}
		fmt.Println()
	}
}

func exitOnError(err error) {
	if err != nil {
		fmt.Printf("Error: %v\n", err)
		os.Exit(1)
	}
}
