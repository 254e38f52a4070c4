// Package kconfig loads the operator's own tuning knobs from an HCL
// file, layered over domain.DefaultTuningParameters. Adapted from the
// teacher's internal/config package, repurposed from rendering the
// managed application's runtime configuration to parsing the
// operator's retry/timeout/resync settings.
package kconfig

import (
	"fmt"
	"os"
	"time"

	"github.com/hashicorp/hcl/v2/hclsimple"

	"github.com/oracle/weblogic-kubernetes-operator/internal/domain"
)

// tuningFile is the HCL shape a tuning file declares. Every field is
// optional; an absent field leaves the corresponding default in place.
//
//	retry_backoff_base                = "1s"
//	retry_backoff_cap                 = "1m"
//	retry_max_attempts                = 5
//	pod_ready_timeout                 = "5m"
//	pod_delete_timeout                = "2m"
//	per_server_roll_timeout           = "10m"
//	additional_delete_grace_seconds   = 10
//	resync_interval                   = "30s"
type tuningFile struct {
	RetryBackoffBase             string `hcl:"retry_backoff_base,optional"`
	RetryBackoffCap              string `hcl:"retry_backoff_cap,optional"`
	RetryMaxAttempts             *int   `hcl:"retry_max_attempts,optional"`
	PodReadyTimeout              string `hcl:"pod_ready_timeout,optional"`
	PodDeleteTimeout             string `hcl:"pod_delete_timeout,optional"`
	PerServerRollTimeout         string `hcl:"per_server_roll_timeout,optional"`
	AdditionalDeleteGraceSeconds *int64 `hcl:"additional_delete_grace_seconds,optional"`
	ResyncInterval               string `hcl:"resync_interval,optional"`
}

// Load reads path and overlays its fields onto
// domain.DefaultTuningParameters. A path that does not exist is not an
// error: the defaults are returned as-is, so an operator deployment
// with no tuning file configured behaves identically to one with an
// empty one.
func Load(path string) (domain.TuningParameters, error) {
	tuning := domain.DefaultTuningParameters()
	if path == "" {
		return tuning, nil
	}
	if _, err := os.Stat(path); os.IsNotExist(err) {
		return tuning, nil
	}

	var f tuningFile
	if err := hclsimple.DecodeFile(path, nil, &f); err != nil {
		return domain.TuningParameters{}, fmt.Errorf("kconfig: decoding %s: %w", path, err)
	}

	if err := overlay(&tuning, f); err != nil {
		return domain.TuningParameters{}, fmt.Errorf("kconfig: %s: %w", path, err)
	}
	return tuning, nil
}

func overlay(tuning *domain.TuningParameters, f tuningFile) error {
	durations := []struct {
		raw string
		dst *time.Duration
	}{
		{f.RetryBackoffBase, &tuning.RetryBackoffBase},
		{f.RetryBackoffCap, &tuning.RetryBackoffCap},
		{f.PodReadyTimeout, &tuning.PodReadyTimeout},
		{f.PodDeleteTimeout, &tuning.PodDeleteTimeout},
		{f.PerServerRollTimeout, &tuning.PerServerRollTimeout},
	}
	for _, d := range durations {
		if d.raw == "" {
			continue
		}
		parsed, err := time.ParseDuration(d.raw)
		if err != nil {
			return fmt.Errorf("invalid duration %q: %w", d.raw, err)
		}
		*d.dst = parsed
	}

	if f.RetryMaxAttempts != nil {
		tuning.RetryMaxAttempts = *f.RetryMaxAttempts
	}
	if f.AdditionalDeleteGraceSeconds != nil {
		tuning.AdditionalDeleteGraceSeconds = *f.AdditionalDeleteGraceSeconds
	}
	if f.ResyncInterval != "" {
		tuning.ResyncInterval = f.ResyncInterval
	}
	return nil
}
