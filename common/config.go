// Copyright (c) 2025 The gwminer developers
// Distributed under the MIT software license, see the accompanying
// file COPYING or http://www.opensource.org/licenses/mit-license.php.

package common

import "time"

const (
	// DefaultURL is the getwork endpoint of a node on localhost.
	DefaultURL = "http://127.0.0.1:9332/"

	// DefaultAuth matches the rpcuser/rpcpassword pair most node setup
	// guides use.
	DefaultAuth = "rpcuser:rpcpass"

	DefaultScanTime   = 5 * time.Second
	DefaultRetryPause = 30 * time.Second
)

type Config struct {
	ConfigFile  string        `short:"c" long:"config" description:"Path to configuration file"`
	URL         string        `short:"o" long:"url" description:"Node getwork endpoint (http://host:port/)"`
	Auth        string        `short:"u" long:"userpass" description:"Node credentials in the form username:password"`
	Threads     int           `short:"t" long:"threads" description:"Number of hash threads to use (default: all available CPUs)"`
	Throttle    float64       `long:"throttle" description:"Hashing duty cycle in (0,1] (default: 1.0, unthrottled)"`
	ScanTime    time.Duration `short:"s" long:"scantime" description:"Upper bound on mining a single work template (e.g. 5s, 1m)"`
	RetryPause  time.Duration `short:"r" long:"retrypause" description:"Pause before retrying after a recoverable failure"`
	MetricsAddr string        `long:"metrics" description:"Listen address for the Prometheus /metrics endpoint (disabled if empty)"`
	Version     bool          `short:"v" description:"Print version"`

	// Positional form kept for script compatibility:
	//   gwminer [URL] [USERNAME:PASSWORD] [THREADS] [THROTTLE] [SCANTIME] [RETRYPAUSE]
	// with SCANTIME and RETRYPAUSE in seconds. Positionals override flags.
	Args struct {
		URL        string  `positional-arg-name:"URL"`
		Auth       string  `positional-arg-name:"USERNAME:PASSWORD"`
		Threads    int     `positional-arg-name:"THREADS"`
		Throttle   float64 `positional-arg-name:"THROTTLE"`
		ScanTime   int     `positional-arg-name:"SCANTIME"`
		RetryPause int     `positional-arg-name:"RETRYPAUSE"`
	} `positional-args:"yes"`
}
