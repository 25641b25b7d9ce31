package config

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/BurntSushi/toml"
	"github.com/fsnotify/fsnotify"
	"github.com/spf13/viper"
	"gopkg.in/yaml.v3"
)

// fileConfig is the on-disk shape of config.toml (and, for legacy
// deployments, config.yaml). Durations are strings ("5m", "1h") since
// neither TOML nor YAML has a native duration type.
type fileConfig struct {
	NParents         int    `toml:"n_parents" yaml:"n_parents"`
	PayloadMax       int    `toml:"payload_max" yaml:"payload_max"`
	TSDrift          string `toml:"ts_drift" yaml:"ts_drift"`
	OrphanTTL        string `toml:"orphan_ttl" yaml:"orphan_ttl"`
	OrphanMaxDepth   int    `toml:"orphan_max_depth" yaml:"orphan_max_depth"`
	RetainLayers     uint64 `toml:"retain_layers" yaml:"retain_layers"`
	PruneInterval    string `toml:"prune_interval" yaml:"prune_interval"`
	RotateAtHour     int    `toml:"rotate_at_hour" yaml:"rotate_at_hour"`
	RotateAtMinute   int    `toml:"rotate_at_minute" yaml:"rotate_at_minute"`
	ReplyTimeout     string `toml:"reply_timeout" yaml:"reply_timeout"`
	CooloffSleep     string `toml:"cooloff_sleep" yaml:"cooloff_sleep"`
	SyncMaxAttempts  int    `toml:"sync_max_attempts" yaml:"sync_max_attempts"`
	MinPeers         int    `toml:"min_peers" yaml:"min_peers"`
	KBatch           int    `toml:"k_batch" yaml:"k_batch"`
	KInflight        int    `toml:"k_inflight" yaml:"k_inflight"`
	SeenSetCapacity  int    `toml:"seen_set_capacity" yaml:"seen_set_capacity"`
}

// LoadFile reads config.toml from dir, falling back to the legacy
// config.yaml if the TOML file is absent, and returns a fully populated
// Config with Default() filling in anything the file doesn't set.
//
// Returns Default() (not a zero Config) when neither file exists — this
// mirrors the teacher's LoadLocalConfig convention of "empty config, not
// nil, on missing file" so callers never need a separate not-configured
// branch.
func LoadFile(dir string) (Config, error) {
	tomlPath := filepath.Join(dir, "config.toml")
	if data, err := os.ReadFile(tomlPath); err == nil {
		var fc fileConfig
		if _, err := toml.Decode(string(data), &fc); err != nil {
			return Config{}, fmt.Errorf("config: parse %s: %w", tomlPath, err)
		}
		return merge(Default(), fc), nil
	}

	yamlPath := filepath.Join(dir, "config.yaml")
	if data, err := os.ReadFile(yamlPath); err == nil {
		var fc fileConfig
		if err := yaml.Unmarshal(data, &fc); err != nil {
			return Config{}, fmt.Errorf("config: parse legacy %s: %w", yamlPath, err)
		}
		return merge(Default(), fc), nil
	}

	return Default(), nil
}

// merge overlays non-zero fields of fc onto base.
func merge(base Config, fc fileConfig) Config {
	if fc.NParents != 0 {
		base.NParents = fc.NParents
	}
	if fc.PayloadMax != 0 {
		base.PayloadMax = fc.PayloadMax
	}
	if d, ok := parseDuration(fc.TSDrift); ok {
		base.TSDrift = d
	}
	if d, ok := parseDuration(fc.OrphanTTL); ok {
		base.OrphanTTL = d
	}
	if fc.OrphanMaxDepth != 0 {
		base.OrphanMaxDepth = fc.OrphanMaxDepth
	}
	if fc.RetainLayers != 0 {
		base.RetainLayers = fc.RetainLayers
	}
	if d, ok := parseDuration(fc.PruneInterval); ok {
		base.PruneInterval = d
	}
	if fc.RotateAtHour != 0 || fc.RotateAtMinute != 0 {
		base.RotationSchedule.AtHour = fc.RotateAtHour
		base.RotationSchedule.AtMinute = fc.RotateAtMinute
	}
	if d, ok := parseDuration(fc.ReplyTimeout); ok {
		base.ReplyTimeout = d
	}
	if d, ok := parseDuration(fc.CooloffSleep); ok {
		base.CooloffSleep = d
	}
	if fc.SyncMaxAttempts != 0 {
		base.SyncMaxAttempts = fc.SyncMaxAttempts
	}
	if fc.MinPeers != 0 {
		base.MinPeers = fc.MinPeers
	}
	if fc.KBatch != 0 {
		base.KBatch = fc.KBatch
	}
	if fc.KInflight != 0 {
		base.KInflight = fc.KInflight
	}
	if fc.SeenSetCapacity != 0 {
		base.SeenSetCapacity = fc.SeenSetCapacity
	}
	return base
}

func parseDuration(s string) (time.Duration, bool) {
	s = strings.TrimSpace(s)
	if s == "" {
		return 0, false
	}
	d, err := time.ParseDuration(s)
	if err != nil {
		return 0, false
	}
	return d, true
}

// LoadWithOverrides layers environment-variable and CLI-flag overrides on
// top of a file-loaded Config using a viper instance, matching the
// teacher's viper-singleton override pattern in the old yaml_config.go.
// Callers bind flags to v before calling this (viper.BindPFlag etc.).
func LoadWithOverrides(dir string, v *viper.Viper) (Config, error) {
	cfg, err := LoadFile(dir)
	if err != nil {
		return Config{}, err
	}
	if v == nil {
		return cfg, nil
	}
	v.SetEnvPrefix("EVGRAPH")
	v.AutomaticEnv()

	if v.IsSet("n_parents") {
		cfg.NParents = v.GetInt("n_parents")
	}
	if v.IsSet("retain_layers") {
		cfg.RetainLayers = uint64(v.GetInt64("retain_layers"))
	}
	if v.IsSet("min_peers") {
		cfg.MinPeers = v.GetInt("min_peers")
	}
	return cfg, nil
}

// WatchSafeTunables hot-reloads RetainLayers and PruneInterval from
// config.toml whenever it changes on disk, invoking apply with the
// updated values. It does not touch any tunable that affects wire
// compatibility (NParents, PayloadMax, TSDrift) — those require a
// restart, since changing them mid-flight would let a node admit events
// its peers would reject (§9 "protocol break" warning on mixed pruning
// policies applies equally here).
func WatchSafeTunables(dir string, apply func(retainLayers uint64, pruneInterval time.Duration)) (*fsnotify.Watcher, error) {
	w, err := fsnotify.NewWatcher()
	if err != nil {
		return nil, fmt.Errorf("config: create watcher: %w", err)
	}
	if err := w.Add(dir); err != nil {
		w.Close()
		return nil, fmt.Errorf("config: watch %s: %w", dir, err)
	}

	go func() {
		for {
			select {
			case ev, ok := <-w.Events:
				if !ok {
					return
				}
				if filepath.Base(ev.Name) != "config.toml" {
					continue
				}
				if ev.Op&(fsnotify.Write|fsnotify.Create) == 0 {
					continue
				}
				cfg, err := LoadFile(dir)
				if err != nil {
					continue
				}
				apply(cfg.RetainLayers, cfg.PruneInterval)
			case _, ok := <-w.Errors:
				if !ok {
					return
				}
			}
		}
	}()

	return w, nil
}
