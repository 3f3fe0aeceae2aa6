// Package extract resolves remote metadata through an ordered chain of
// client profiles, falling back only when the remote side rejects the
// request as automated traffic.
package extract

import (
	"context"
	"errors"
	"fmt"

	"github.com/sirupsen/logrus"
	"github.com/ytget/yt-audio-bot/internal/logging"
	"github.com/ytget/yt-audio-bot/internal/model"
)

// Prober fetches metadata for one source with one client profile
type Prober interface {
	Probe(ctx context.Context, source string, profile model.ClientProfile) (*model.MediaMetadata, error)
}

// Result is a successful extraction together with the profile that passed
type Result struct {
	Metadata *model.MediaMetadata
	Profile  model.ClientProfile
	Attempts int
}

// Extractor tries client profiles in order until one succeeds
type Extractor struct {
	prober   Prober
	profiles []model.ClientProfile
	log      logrus.FieldLogger
}

// NewExtractor creates an extractor. With no profiles the default chain is used.
func NewExtractor(prober Prober, profiles []model.ClientProfile, log logrus.FieldLogger) *Extractor {
	if len(profiles) == 0 {
		profiles = model.DefaultProfiles()
	}
	return &Extractor{
		prober:   prober,
		profiles: profiles,
		log:      logging.OrDiscard(log),
	}
}

// Profiles returns the configured chain
func (e *Extractor) Profiles() []model.ClientProfile {
	return append([]model.ClientProfile(nil), e.profiles...)
}

// Extract resolves metadata for source. The primary profile is tried first;
// alternates are tried in order only after an anti-automation rejection of
// the primary. Once the chain is entered, any failure of an alternate moves
// on to the next one. When every profile fails the primary profile's error
// is returned.
func (e *Extractor) Extract(ctx context.Context, source string) (*Result, error) {
	primary := e.profiles[0]
	meta, err := e.prober.Probe(ctx, source, primary)
	if err == nil {
		return &Result{Metadata: meta, Profile: primary, Attempts: 1}, nil
	}
	if !model.IsBlocked(err) {
		return nil, err
	}

	originalErr := err
	e.log.WithFields(logrus.Fields{
		logging.FieldSource:  source,
		logging.FieldProfile: primary.Name,
	}).Warnf("Extraction blocked, trying fallback profiles: %v", err)

	for i, profile := range e.profiles[1:] {
		if ctx.Err() != nil {
			return nil, fmt.Errorf("%w: %w", originalErr, ctx.Err())
		}

		meta, err := e.prober.Probe(ctx, source, profile)
		if err == nil {
			e.log.WithFields(logrus.Fields{
				logging.FieldSource:  source,
				logging.FieldProfile: profile.Name,
			}).Info("Fallback profile passed extraction")
			return &Result{Metadata: meta, Profile: profile, Attempts: i + 2}, nil
		}

		e.log.WithFields(logrus.Fields{
			logging.FieldSource:  source,
			logging.FieldProfile: profile.Name,
		}).Debugf("Fallback profile failed: %v", err)

		if errors.Is(err, context.Canceled) {
			return nil, err
		}
	}

	return nil, originalErr
}
