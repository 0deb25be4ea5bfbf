package probe

import (
	"fmt"
	"io"
	"net/http"
	"os"
	"strings"
	"time"

	"github.com/SafeMPC/custody-engine/internal/config"
	"github.com/rs/zerolog/log"
	"github.com/spf13/cobra"
)

func newLiveness() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "liveness",
		Short: "Checks the liveness endpoint of a running server",
		Run: func(cmd *cobra.Command, args []string) {
			verbose, err := cmd.Flags().GetBool(verboseFlag)
			if err != nil {
				log.Fatal().Err(err).Msg("Failed to parse flags")
			}
			probeEndpoint("/-/healthy", verbose)
		},
	}

	cmd.Flags().BoolP(verboseFlag, "v", false, "Prints the probe response body")

	return cmd
}

// probeEndpoint exits non-zero if the management endpoint does not answer 200.
func probeEndpoint(path string, verbose bool) {
	cfg := config.DefaultServiceConfigFromEnv()

	addr := cfg.Echo.ListenAddress
	if strings.HasPrefix(addr, ":") {
		addr = "localhost" + addr
	}

	client := &http.Client{Timeout: 5 * time.Second}
	res, err := client.Get(fmt.Sprintf("http://%s%s", addr, path))
	if err != nil {
		log.Fatal().Err(err).Str("path", path).Msg("Probe request failed")
	}
	defer res.Body.Close()

	body, err := io.ReadAll(res.Body)
	if err != nil {
		log.Fatal().Err(err).Msg("Failed to read probe response")
	}

	if verbose {
		fmt.Println(string(body))
	}

	if res.StatusCode != http.StatusOK {
		os.Exit(1)
	}
}
