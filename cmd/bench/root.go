package bench

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/ValentinKolb/kvbind/cmd/util"
	"github.com/ValentinKolb/kvbind/lib/binding"
	"github.com/VictoriaMetrics/metrics"
	"github.com/spf13/cobra"
	"github.com/spf13/viper"
)

var (
	benchWorkload Workload
	benchMetrics  *binding.Metrics

	// BenchCommands represents the benchmark command group
	BenchCommands = &cobra.Command{
		Use:               "bench",
		Short:             "Run a workload against a backend",
		PersistentPreRunE: processBenchConfig,
	}
	loadCmd = &cobra.Command{
		Use:   "load",
		Short: "Insert the initial records of the workload",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			return runPhase(cmd.Context(), "load", (*Runner).Load)
		},
	}
	runCmd = &cobra.Command{
		Use:   "run",
		Short: "Execute the operations of the workload",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			return runPhase(cmd.Context(), "run", (*Runner).Run)
		},
	}
)

// workloadFlags are the flags that override the values of a workload file
var workloadFlags = []string{
	"recordcount", "operationcount", "fieldcount", "fieldlength",
	"readproportion", "updateproportion", "insertproportion", "scanproportion", "deleteproportion",
	"maxscanlength", "writeallfields", "threads", "keyprefix", "seed",
}

func init() {
	util.SetupBackendFlags(BenchCommands)

	defaults := DefaultWorkload()

	key := "workload"
	BenchCommands.PersistentFlags().String(key, "", util.WrapString("Optional workload file (yaml or json). Flags that are set explicitly override the file"))

	key = "recordcount"
	BenchCommands.PersistentFlags().Int(key, defaults.RecordCount, util.WrapString("Number of records inserted by the load phase"))
	key = "operationcount"
	BenchCommands.PersistentFlags().Int(key, defaults.OperationCount, util.WrapString("Number of operations executed by the run phase"))
	key = "fieldlength"
	BenchCommands.PersistentFlags().Int(key, defaults.FieldLength, util.WrapString("Length of every generated field value in bytes"))
	key = "readproportion"
	BenchCommands.PersistentFlags().Float64(key, defaults.ReadProportion, util.WrapString("Proportion of reads"))
	key = "updateproportion"
	BenchCommands.PersistentFlags().Float64(key, defaults.UpdateProportion, util.WrapString("Proportion of updates"))
	key = "insertproportion"
	BenchCommands.PersistentFlags().Float64(key, defaults.InsertProportion, util.WrapString("Proportion of inserts"))
	key = "scanproportion"
	BenchCommands.PersistentFlags().Float64(key, defaults.ScanProportion, util.WrapString("Proportion of scans (reported as not implemented)"))
	key = "deleteproportion"
	BenchCommands.PersistentFlags().Float64(key, defaults.DeleteProportion, util.WrapString("Proportion of deletes (reported as not implemented)"))
	key = "maxscanlength"
	BenchCommands.PersistentFlags().Int(key, defaults.MaxScanLength, util.WrapString("Maximum number of records of a scan"))
	key = "writeallfields"
	BenchCommands.PersistentFlags().Bool(key, defaults.WriteAllFields, util.WrapString("Updates write all fields instead of a single one"))
	key = "threads"
	BenchCommands.PersistentFlags().Int(key, defaults.Threads, util.WrapString("Number of workers, each with its own connection"))
	key = "keyprefix"
	BenchCommands.PersistentFlags().String(key, defaults.KeyPrefix, util.WrapString("Prefix of all record keys"))
	key = "seed"
	BenchCommands.PersistentFlags().Int64(key, defaults.Seed, util.WrapString("Seed of the random generators (worker n uses seed+n)"))

	key = "csv"
	BenchCommands.PersistentFlags().String(key, "", util.WrapString("Optional path to save the results as CSV"))
	key = "prometheus"
	BenchCommands.PersistentFlags().String(key, "", util.WrapString("Optional path to dump the binding metrics in Prometheus text format ('-' for stdout)"))
	key = "metrics-prefix"
	BenchCommands.PersistentFlags().String(key, binding.DefaultMetricsPrefix, util.WrapString("Prefix of the binding metrics"))

	BenchCommands.AddCommand(loadCmd)
	BenchCommands.AddCommand(runCmd)
}

// processBenchConfig resolves the workload from the workload file, flags and environment variables
func processBenchConfig(cmd *cobra.Command, _ []string) error {
	if err := util.BindCommandFlags(cmd); err != nil {
		return err
	}

	w := DefaultWorkload()
	path := viper.GetString("workload")
	if path != "" {
		var err error
		if w, err = LoadWorkload(path); err != nil {
			return err
		}
	}

	for _, key := range workloadFlags {
		if path == "" || cmd.Flags().Changed(key) {
			applyFlag(&w, key)
		}
	}

	if err := w.Validate(); err != nil {
		return fmt.Errorf("invalid workload: %w", err)
	}

	// the record store sizes values with the field count of the workload
	viper.Set("fieldcount", w.FieldCount)

	benchWorkload = w
	benchMetrics = binding.NewMetrics(viper.GetString("metrics-prefix"), metrics.NewSet())
	return nil
}

func applyFlag(w *Workload, key string) {
	switch key {
	case "recordcount":
		w.RecordCount = viper.GetInt(key)
	case "operationcount":
		w.OperationCount = viper.GetInt(key)
	case "fieldcount":
		w.FieldCount = viper.GetInt(key)
	case "fieldlength":
		w.FieldLength = viper.GetInt(key)
	case "readproportion":
		w.ReadProportion = viper.GetFloat64(key)
	case "updateproportion":
		w.UpdateProportion = viper.GetFloat64(key)
	case "insertproportion":
		w.InsertProportion = viper.GetFloat64(key)
	case "scanproportion":
		w.ScanProportion = viper.GetFloat64(key)
	case "deleteproportion":
		w.DeleteProportion = viper.GetFloat64(key)
	case "maxscanlength":
		w.MaxScanLength = viper.GetInt(key)
	case "writeallfields":
		w.WriteAllFields = viper.GetBool(key)
	case "threads":
		w.Threads = viper.GetInt(key)
	case "keyprefix":
		w.KeyPrefix = viper.GetString(key)
	case "seed":
		w.Seed = viper.GetInt64(key)
	}
}

// runPhase executes one phase and reports the results
func runPhase(ctx context.Context, phase string, execute func(*Runner, context.Context) error) error {
	if ctx == nil {
		ctx = context.Background()
	}
	ctx, stop := signal.NotifyContext(ctx, os.Interrupt, syscall.SIGTERM)
	defer stop()

	fmt.Println("Configuration:")
	fmt.Println(util.GetBackendConfig().String())
	fmt.Println(benchWorkload.String())

	runner := NewRunner(benchWorkload, func() (*binding.RecordStore, error) {
		store, _, err := util.NewRecordStore(benchMetrics)
		return store, err
	})

	start := time.Now()
	err := execute(runner, ctx)
	elapsed := time.Since(start)

	results := runner.Results(elapsed)
	PrintSummary(os.Stdout, phase, elapsed, results)

	if csvPath := viper.GetString("csv"); csvPath != "" {
		if csvErr := WriteCSV(csvPath, phase, results, benchWorkload, viper.GetString("protocol")); csvErr != nil {
			return csvErr
		}
		fmt.Printf("Results saved to %s\n", csvPath)
	}

	if promPath := viper.GetString("prometheus"); promPath != "" {
		if promErr := dumpMetrics(promPath); promErr != nil {
			return promErr
		}
	}

	return err
}

func dumpMetrics(path string) error {
	if path == "-" {
		benchMetrics.WritePrometheus(os.Stdout)
		return nil
	}

	file, err := os.Create(path)
	if err != nil {
		return fmt.Errorf("failed to create metrics file: %w", err)
	}
	defer file.Close()

	benchMetrics.WritePrometheus(file)
	return nil
}
