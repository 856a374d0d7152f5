package catalog

import (
	"context"
	"fmt"
	"os"
	"strings"

	"gopkg.in/yaml.v3"
)

// ChannelPolicy is the YAML document accepted by `channel import`.
type ChannelPolicy struct {
	Name              string         `yaml:"name"`
	Language          string         `yaml:"language"`
	Watermark         string         `yaml:"watermark"`
	Active            *bool          `yaml:"active"`
	Prompts           ChannelPrompts `yaml:"prompts"`
	ReuseCapOverride  int            `yaml:"reuse_cap_override"`
	ThresholdOverride float64        `yaml:"threshold_override"`
}

// LoadChannelPolicy parses a channel policy file.
func LoadChannelPolicy(path string) (*ChannelPolicy, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("read policy file: %w", err)
	}
	var policy ChannelPolicy
	if err := yaml.Unmarshal(data, &policy); err != nil {
		return nil, fmt.Errorf("parse policy file: %w", err)
	}
	if strings.TrimSpace(policy.Name) == "" {
		return nil, fmt.Errorf("policy file %s: name is required", path)
	}
	if policy.ThresholdOverride < 0 || policy.ThresholdOverride > 1 {
		return nil, fmt.Errorf("policy file %s: threshold_override must be in [0,1]", path)
	}
	if policy.ReuseCapOverride < 0 {
		return nil, fmt.Errorf("policy file %s: reuse_cap_override must not be negative", path)
	}
	return &policy, nil
}

// ImportChannelPolicy creates or updates a channel from a policy document.
// Returns the stored channel and whether it was newly created.
func (s *Store) ImportChannelPolicy(ctx context.Context, policy *ChannelPolicy) (*Channel, bool, error) {
	existing, err := s.GetChannelByName(ctx, policy.Name)
	if err != nil {
		return nil, false, err
	}

	active := true
	if policy.Active != nil {
		active = *policy.Active
	}

	if existing == nil {
		channel := &Channel{
			Name:              policy.Name,
			Language:          policy.Language,
			Watermark:         policy.Watermark,
			Active:            active,
			Prompts:           policy.Prompts,
			ReuseCapOverride:  policy.ReuseCapOverride,
			ThresholdOverride: policy.ThresholdOverride,
		}
		if err := s.AddChannel(ctx, channel); err != nil {
			return nil, false, err
		}
		return channel, true, nil
	}

	existing.Language = policy.Language
	existing.Watermark = policy.Watermark
	existing.Active = active
	existing.Prompts = policy.Prompts
	existing.ReuseCapOverride = policy.ReuseCapOverride
	existing.ThresholdOverride = policy.ThresholdOverride
	if err := s.UpdateChannel(ctx, existing); err != nil {
		return nil, false, err
	}
	return existing, false, nil
}
