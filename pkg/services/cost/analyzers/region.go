package analyzers

// regionsOrDefault yields a single empty region, meaning the session's own, when no
// regions are configured.
func regionsOrDefault(regions []string) []string {
	if len(regions) == 0 {
		return []string{""}
	}
	return regions
}

func regionName(region string) string {
	if region == "" {
		return "default region"
	}
	return region
}

func inRegion[O any](region string, set func(*O, string)) func(*O) {
	return func(o *O) {
		if region != "" {
			set(o, region)
		}
	}
}
