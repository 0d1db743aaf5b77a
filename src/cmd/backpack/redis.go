package main

import (
	"fmt"
	"net/url"

	"github.com/spf13/cobra"

	"sasquatch-backpack/src/cache"
	"sasquatch-backpack/src/contracts"
	"sasquatch-backpack/src/usgs"
)

const checkID = "backpack-connectivity-check"

func newTestRedisCmd() *cobra.Command {
	var address string

	cmd := &cobra.Command{
		Use:   "test-usgs-redis",
		Short: "Write and read a check key through the membership cache",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			if address == "" {
				address = appConfig.RedisURL
			}
			out := cmd.OutOrStdout()
			ctx := cmd.Context()

			fmt.Fprintf(out, "Connecting to cache at %s\n", redactAddress(address))
			c, err := cache.Open(ctx, address)
			if err != nil {
				return err
			}
			defer c.Close()

			key := contracts.CacheKey(usgs.TopicName, checkID)
			if err := c.Store(ctx, key); err != nil {
				return err
			}
			present, err := c.Get(ctx, key)
			if err != nil {
				return err
			}
			if !present {
				return fmt.Errorf("check key %s was stored but cannot be read back", key)
			}

			fmt.Fprintf(out, "Stored and read back %s\n", key)
			return nil
		},
	}
	cmd.Flags().StringVar(&address, "redis-url", "", "Membership cache address (default $BACKPACK_REDIS_URL)")
	return cmd
}

// redactAddress masks the password of a cache address before it is printed.
func redactAddress(address string) string {
	u, err := url.Parse(address)
	if err != nil {
		return "<unparseable address>"
	}
	return u.Redacted()
}
