package main

import "github.com/spf13/cobra"

// configCmd is a help topic: it has no Run, so cobra lists it under
// "Additional help topics".
var configCmd = &cobra.Command{
	Use:   "config",
	Short: "Settings in .versoconfig.yaml, .env and VERSO_* variables",
	Long: `verso reads .versoconfig.yaml from the directory holding .verso/.
Every key is optional. A .env file in the same directory, then the process
environment, override the file.

  storage        VERSO_STORAGE        file (default), sqlite, redis or memory
  slot_key       VERSO_SLOT_KEY       name of the saved cart (default versoCart)
  sqlite_path    VERSO_SQLITE_PATH    database file, relative to .verso/ (default cart.db)
  redis_url      VERSO_REDIS_URL      e.g. redis://localhost:6379/0; wins over redis_addr
  redis_addr     VERSO_REDIS_ADDR     host:port (default localhost:6379)
  redis_timeout  VERSO_REDIS_TIMEOUT  per-call timeout (default 2s)
  default_size   VERSO_DEFAULT_SIZE   size used when add has no --size (default 12oz)
  default_grind  VERSO_DEFAULT_GRIND  grind used when add has no --grind (default whole-bean)
  log_level      VERSO_LOG_LEVEL      debug, info, warn or error (default error)
  catalog        VERSO_CATALOG        catalog file replacing the built-in one
  currency       VERSO_CURRENCY       symbol printed before prices (default $)

If the configured storage cannot be reached, verso warns and keeps the cart
in memory for that run.`,
}

func init() {
	rootCmd.AddCommand(configCmd)
}
