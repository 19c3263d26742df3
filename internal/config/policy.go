package config

import (
	_ "embed"
	"fmt"
	"slices"
	"strings"

	"gopkg.in/yaml.v3"
)

//go:embed upload_policy.yaml
var uploadPolicyYAML []byte

// UploadPolicy controls which uploads are accepted and how the bucket is provisioned.
type UploadPolicy struct {
	MaxSizeBytes        int64    `yaml:"max_size_bytes"`
	AllowedMIMEPrefixes []string `yaml:"allowed_mime_prefixes"`
	BucketMIMETypes     []string `yaml:"bucket_mime_types"`
	FolderIcons         []string `yaml:"folder_icons"`
}

// LoadUploadPolicy parses the embedded policy file.
func LoadUploadPolicy() (*UploadPolicy, error) {
	return ParseUploadPolicy(uploadPolicyYAML)
}

// ParseUploadPolicy parses a policy document and fills defaults.
func ParseUploadPolicy(data []byte) (*UploadPolicy, error) {
	var p UploadPolicy
	if err := yaml.Unmarshal(data, &p); err != nil {
		return nil, fmt.Errorf("failed to unmarshal upload policy: %w", err)
	}
	if p.MaxSizeBytes <= 0 {
		p.MaxSizeBytes = MaxUploadBytes
	}
	if len(p.AllowedMIMEPrefixes) == 0 {
		return nil, fmt.Errorf("upload policy: allowed_mime_prefixes is empty")
	}
	if len(p.BucketMIMETypes) > 0 {
		for _, prefix := range p.AllowedMIMEPrefixes {
			if !p.bucketCovers(prefix) {
				return nil, fmt.Errorf("upload policy: allowed prefix %q is not in bucket_mime_types", prefix)
			}
		}
	}
	return &p, nil
}

// bucketCovers reports whether every MIME type starting with prefix is
// accepted by the bucket list. "type/*" covers anything under type/.
func (p *UploadPolicy) bucketCovers(prefix string) bool {
	for _, t := range p.BucketMIMETypes {
		if t == prefix {
			return true
		}
		if base, ok := strings.CutSuffix(t, "*"); ok && strings.HasSuffix(base, "/") && strings.HasPrefix(prefix, base) {
			return true
		}
	}
	return false
}

// BucketAllowsMIME reports whether the bucket list accepts mimeType.
func (p *UploadPolicy) BucketAllowsMIME(mimeType string) bool {
	mimeType = baseMIME(mimeType)
	if mimeType == "" {
		return false
	}
	for _, t := range p.BucketMIMETypes {
		if t == mimeType {
			return true
		}
		if base, ok := strings.CutSuffix(t, "*"); ok && strings.HasPrefix(mimeType, base) {
			return true
		}
	}
	return false
}

// AllowsMIME reports whether mimeType matches an allowed prefix and the
// bucket would store it.
// Parameters such as "; charset=utf-8" are ignored.
func (p *UploadPolicy) AllowsMIME(mimeType string) bool {
	mimeType = baseMIME(mimeType)
	if mimeType == "" {
		return false
	}
	for _, prefix := range p.AllowedMIMEPrefixes {
		if strings.HasPrefix(mimeType, prefix) {
			return len(p.BucketMIMETypes) == 0 || p.BucketAllowsMIME(mimeType)
		}
	}
	return false
}

// baseMIME lowercases mimeType and drops its parameters.
func baseMIME(mimeType string) string {
	mimeType = strings.ToLower(strings.TrimSpace(mimeType))
	if i := strings.IndexByte(mimeType, ';'); i >= 0 {
		mimeType = strings.TrimSpace(mimeType[:i])
	}
	return mimeType
}

// AllowsIcon reports whether icon is a known folder icon tag.
func (p *UploadPolicy) AllowsIcon(icon string) bool {
	return slices.Contains(p.FolderIcons, icon)
}
