// Package config is the run configuration for cmd/catex and
// cmd/catexd, populated from environment variables with CLI flags
// overriding them, following the cleanenv pattern this lineage's
// other deployment carries for env/flag-driven configuration.
package config

import (
	"flag"

	"github.com/ilyakaznacheev/cleanenv"
)

// Run is the full configuration for one batch solve.
type Run struct {
	MainDir         string `env:"CATEX_MAIN_DIR" env-default:"."`
	ExpectationMode string `env:"CATEX_EXPECTATION_MODE" env-default:"source_compat"`
	FlowFormulation string `env:"CATEX_FLOW_FORMULATION" env-default:"aggregate"`
	IncludeShunts   bool   `env:"CATEX_INCLUDE_SHUNTS" env-default:"true"`
	Solver          string `env:"CATEX_SOLVER" env-default:"virtual"`
	DumpModel       bool   `env:"CATEX_DUMP_MODEL" env-default:"false"`

	MongoURI    string `env:"CATEX_MONGO_URI" env-default:""`
	MongoDB     string `env:"CATEX_MONGO_DATABASE" env-default:"catex"`
	MySQLDSN    string `env:"CATEX_MYSQL_DSN" env-default:""`
	NATSURL     string `env:"CATEX_NATS_URL" env-default:""`

	HTTPAddr string `env:"CATEXD_HTTP_ADDR" env-default:":8090"`
}

// Load reads Run from the environment, then overlays any flags present
// in args (normally os.Args[1:]). Flags take precedence over the
// environment; env-default values are the base case when neither is
// set.
func Load(args []string) (*Run, error) {
	r := &Run{}
	if err := cleanenv.ReadEnv(r); err != nil {
		return nil, err
	}

	fs := flag.NewFlagSet("catex", flag.ContinueOnError)
	fs.StringVar(&r.MainDir, "main-dir", r.MainDir, "directory containing inputs/ and outputs/")
	fs.StringVar(&r.ExpectationMode, "expectation-mode", r.ExpectationMode, "source_compat or probability_only")
	fs.StringVar(&r.FlowFormulation, "flow-formulation", r.FlowFormulation, "aggregate or per_line")
	fs.BoolVar(&r.IncludeShunts, "include-shunts", r.IncludeShunts, "fold line shunts into the admittance matrix")
	fs.StringVar(&r.Solver, "solver", r.Solver, "virtual or highs")
	fs.BoolVar(&r.DumpModel, "dump-model", r.DumpModel, "write outputs/model.txt")
	fs.StringVar(&r.MongoURI, "mongo-uri", r.MongoURI, "MongoDB URI for the run archive sink (empty disables it)")
	fs.StringVar(&r.MySQLDSN, "mysql-dsn", r.MySQLDSN, "MySQL DSN for the cost ledger sink (empty disables it)")
	fs.StringVar(&r.NATSURL, "nats-url", r.NATSURL, "NATS URL for the run-completed notifier (empty disables it)")
	fs.StringVar(&r.HTTPAddr, "http-addr", r.HTTPAddr, "bind address for cmd/catexd")

	if err := fs.Parse(args); err != nil {
		return nil, err
	}
	return r, nil
}
