package main

import "github.com/Masterminds/semver/v3"

func parseSemver(s string) (*semver.Version, error) {
	return semver.NewVersion(s)
}
