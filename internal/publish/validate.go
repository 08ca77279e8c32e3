package publish

import (
	"os"

	"lathe/internal/checksum"
	"lathe/internal/logging"
)

// Validate re-reads each local asset file and compares it against the
// recorded checksum and size. It is the pre-flight integrity gate run
// before any upload so a corrupted local artifact is caught before the
// release host is touched.
func (c *Client) Validate(assets []ReleaseAsset) ValidationReport {
	report := ValidationReport{Valid: true}

	for _, asset := range assets {
		if _, err := os.Stat(asset.Path); err != nil {
			report.Valid = false
			report.Missing = append(report.Missing, asset.Name)
			continue
		}
		size, digest, err := checksum.File(asset.Path)
		if err != nil {
			report.Valid = false
			report.Missing = append(report.Missing, asset.Name)
			continue
		}
		if size != asset.Size {
			report.Valid = false
			report.SizeMismatches = append(report.SizeMismatches, asset.Name)
		}
		if digest != asset.Checksum {
			report.Valid = false
			report.ChecksumMismatches = append(report.ChecksumMismatches, asset.Name)
		}
	}

	if !report.Valid {
		c.logger.Warn("asset validation failed",
			logging.Int("missing", len(report.Missing)),
			logging.Int("checksum_mismatches", len(report.ChecksumMismatches)),
			logging.Int("size_mismatches", len(report.SizeMismatches)),
		)
	}
	return report
}
