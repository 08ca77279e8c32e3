package relnotes

import (
	"fmt"
	"strings"

	"golang.org/x/text/cases"
	"golang.org/x/text/language"

	"lathe/internal/bugfix"
)

var severityCaser = cases.Title(language.English)

func (g *Generator) turkishNarrative(version, date string, fixes []bugfix.Fix) string {
	app := g.cfg.Project.AppName
	var b strings.Builder

	fmt.Fprintf(&b, "# %s v%s Sürüm Notları\n\n", app, version)
	fmt.Fprintf(&b, "**Yayın Tarihi**: %s\n\n", date)
	fmt.Fprintf(&b, "## Genel Bakış\n\n")
	fmt.Fprintf(&b, "%s v%s sürümü %d hata düzeltmesi içermektedir.\n\n", app, version, len(fixes))

	if len(fixes) > 0 {
		b.WriteString("## Çözülen Hatalar\n\n")
		for i, fix := range fixes {
			fmt.Fprintf(&b, "### %d. %s\n\n", i+1, fix.Title)
			fmt.Fprintf(&b, "**Hata ID**: %s  \n", fix.ID)
			fmt.Fprintf(&b, "**Önem Derecesi**: %s  \n", severityCaser.String(fix.Severity))
			if len(fix.AffectedVersions) > 0 {
				fmt.Fprintf(&b, "**Etkilenen Versiyonlar**: %s\n", strings.Join(fix.AffectedVersions, ", "))
			}
			b.WriteString("\n")
			fmt.Fprintf(&b, "**Açıklama**: %s\n\n", fix.Description)
			fmt.Fprintf(&b, "**Çözüm**: %s\n\n", fix.SolutionSummary)
			if fix.TestResults != "" {
				fmt.Fprintf(&b, "**Test Sonuçları**: %s\n\n", fix.TestResults)
			}
			b.WriteString("---\n\n")
		}
	}

	b.WriteString("## Kurulum\n\n")
	fmt.Fprintf(&b, "Sürümü [GitHub Releases](%s) sayfasından indirebilirsiniz.\n\n", g.releaseTagURL(version))
	b.WriteString("Güncelleme öncesi mevcut kurulumunuzu yedeklemeniz önerilir.\n")

	return b.String()
}

func (g *Generator) englishNarrative(version, date string, fixes []bugfix.Fix) string {
	app := g.cfg.Project.AppName
	var b strings.Builder

	fmt.Fprintf(&b, "# %s v%s Release Notes\n\n", app, version)
	fmt.Fprintf(&b, "**Release Date**: %s\n\n", date)
	b.WriteString("## Overview\n\n")
	fmt.Fprintf(&b, "%s v%s ships %d bug fixes.\n\n", app, version, len(fixes))

	if len(fixes) > 0 {
		b.WriteString("## Fixed Issues\n\n")
		for i, fix := range fixes {
			fmt.Fprintf(&b, "### %d. %s\n\n", i+1, fix.Title)
			fmt.Fprintf(&b, "**Bug ID**: %s  \n", fix.ID)
			fmt.Fprintf(&b, "**Severity**: %s  \n", severityCaser.String(fix.Severity))
			if len(fix.AffectedVersions) > 0 {
				fmt.Fprintf(&b, "**Affected Versions**: %s\n", strings.Join(fix.AffectedVersions, ", "))
			}
			b.WriteString("\n")
			fmt.Fprintf(&b, "**Description**: %s\n\n", fix.Description)
			fmt.Fprintf(&b, "**Solution**: %s\n\n", fix.SolutionSummary)
			if fix.TestResults != "" {
				fmt.Fprintf(&b, "**Test Results**: %s\n\n", fix.TestResults)
			}
			b.WriteString("---\n\n")
		}
	}

	b.WriteString("## Installation\n\n")
	fmt.Fprintf(&b, "Download this release from [GitHub Releases](%s).\n\n", g.releaseTagURL(version))
	b.WriteString("Backing up your current installation before updating is recommended.\n")

	return b.String()
}

func (g *Generator) technicalDetails(fixes []bugfix.Fix) string {
	var b strings.Builder

	b.WriteString("# Technical Implementation Details\n\n")

	if len(fixes) == 0 {
		b.WriteString("No bug-fix records were supplied for this release.\n")
		return b.String()
	}

	b.WriteString("## Implementation Details\n\n")
	for _, fix := range fixes {
		fmt.Fprintf(&b, "### %s\n\n", fix.Title)
		if fix.TechnicalDetails != "" {
			fmt.Fprintf(&b, "**Technical Implementation**: %s\n\n", fix.TechnicalDetails)
		}
		if fix.TestResults != "" {
			fmt.Fprintf(&b, "**Test Coverage**: %s\n\n", fix.TestResults)
		}
	}

	return b.String()
}

func (g *Generator) installation(version string) string {
	app := g.cfg.Project.AppName
	var b strings.Builder

	fmt.Fprintf(&b, "# Installation Instructions for %s v%s\n\n", app, version)

	b.WriteString("## Method 1: Packaged Release (Recommended)\n\n")
	fmt.Fprintf(&b, "1. Visit: %s\n", g.releaseTagURL(version))
	fmt.Fprintf(&b, "2. Download the executable bundle for your platform\n")
	fmt.Fprintf(&b, "3. Back up your current %s directory\n", app)
	b.WriteString("4. Replace the existing executable with the downloaded one\n\n")

	b.WriteString("## Method 2: Source Installation\n\n")
	fmt.Fprintf(&b, "1. Download `%s-v%s-Source.zip` from the release page\n", app, version)
	b.WriteString("2. Extract to the desired location\n")
	b.WriteString("3. Install dependencies and run the launcher script\n\n")

	b.WriteString("## Post-Installation Verification\n\n")
	fmt.Fprintf(&b, "1. Launch %s and confirm the version shows v%s\n", app, version)
	b.WriteString("2. Verify core functions against a test entry\n\n")

	b.WriteString("## Rollback\n\n")
	b.WriteString("Restore your pre-update backup if the new version fails to start.\n")

	return b.String()
}
