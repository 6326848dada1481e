package main

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"
	"github.com/spf13/pflag"
	"github.com/spf13/viper"

	"github.com/jbweber/vbsnap/internal/config"
)

var (
	version = "dev"
	commit  = "unknown"
)

// settings collects flags, environment and config file values.
var settings = config.NewViper()

func main() {
	if err := rootCmd.Execute(); err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(1)
	}
}

var rootCmd = &cobra.Command{
	Use:   "vbsnap [command]",
	Short: "vbsnap - Creation and management of virtual machines",
	Long: `vbsnap manages a pool of VirtualBox machines in one host group.

It imports appliances, makes linked clones of base machines with a TCP
serial console and internal networks, and keeps an inventory of them in
a JSON file.

Commands:
  vbsnap                           print usage
  vbsnap list                      list every machine
  vbsnap <image>.ova|.ovf          import an appliance
  vbsnap <VM>                      show one machine
  vbsnap <BaseVM> <CloneVM>[:<Port>] [<eth1-net> [<eth2-net> [<eth3-net>]]]
                                   make a linked clone
  vbsnap erase <CloneVM>|--all     erase machines`,
	Version:       fmt.Sprintf("%s (commit: %s)", version, commit),
	Args:          cobra.ArbitraryArgs,
	SilenceUsage:  true,
	SilenceErrors: true,
	RunE:          runRoot,
}

// flagKeys maps each flag to the config key it is bound to.
var flagKeys = map[string]string{
	"group":        "group",
	"db":           "db",
	"vboxmanage":   "vboxmanage",
	"start-port":   "start_port",
	"output":       "output",
	"log-level":    "log_level",
	"debug":        "debug",
	"cli":          "cli",
	"no-scan":      "no_scan",
	"prune":        "prune",
	"metrics-file": "metrics_file",
}

var (
	configPath      string
	writeConfigPath string
)

func init() {
	rootCmd.CompletionOptions.DisableDefaultCmd = true

	flags := rootCmd.Flags()
	// Positional arguments such as "erase --all" belong to vbsnap's own
	// classifier, so flags must come first.
	flags.SetInterspersed(false)

	d := config.Defaults()
	flags.StringVar(&configPath, "config", "", "config file (default $HOME/.config/vbsnap/config.yaml)")
	flags.StringVar(&writeConfigPath, "write-config", "", "write the effective configuration to this file and exit")
	flags.String("group", d.Group, "host group of managed machines")
	flags.String("db", d.DB, "inventory file")
	flags.String("vboxmanage", d.VBoxManage, "VBoxManage executable")
	flags.Int("start-port", d.StartPort, "console port of the first clone")
	flags.StringP("output", "o", d.Output, "output format (text, table, json, yaml)")
	flags.String("log-level", d.LogLevel, "log level (trace, debug, info, warn, error)")
	flags.Bool("debug", d.Debug, "log every VBoxManage call")
	flags.Bool("cli", d.Interactive, "read commands from stdin")
	flags.Bool("no-scan", d.NoScan, "skip the host scan at startup")
	flags.Bool("prune", d.Prune, "drop records of machines the host no longer has")
	flags.String("metrics-file", d.MetricsFile, "write Prometheus metrics to this textfile at exit")

	bindFlags(settings, flags)
}

func bindFlags(v *viper.Viper, flags *pflag.FlagSet) {
	for flag, key := range flagKeys {
		if err := v.BindPFlag(key, flags.Lookup(flag)); err != nil {
			panic(fmt.Sprintf("failed to bind flag %s: %v", flag, err))
		}
	}
}
