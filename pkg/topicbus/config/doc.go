/*
Package config holds topicbus defaults and file-based router configuration.

# Defaults

DefaultTopic is the reserved topic name used for envelopes without a topic and
for routers built without an explicit topic set. DefaultBuffer is the backlog
capacity of a topic channel when none is given.

# File Loading

Load configuration from YAML or JSON files:

	cfg, err := config.FromFile("topics.yaml")
	if err != nil {
	    log.Fatal(err)
	}

	topics, err := cfg.Topics()

A configuration file looks like:

	ingress_buffer: 64
	close_on_stop: true
	dead_letters: ./deadletters.db
	topics:
	  - name: orders
	    buffer: 4
	  - alerts

# Typed Access

Config wraps a map[string]any. Accessors return the default value when the key
is missing or holds a value of the wrong type:

	cfg := config.New(map[string]any{"ingress_buffer": 128})
	cfg.Int("ingress_buffer", 64) // 128
	cfg.Bool("close_on_stop", false) // false

Config is safe for concurrent read access.
*/
package config
