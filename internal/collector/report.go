package collector

import (
	"fmt"
	"io"
	"strings"
)

const reportSampleSize = 5

// WriteReport prints the end-of-run summary shown to operators.
func WriteReport(w io.Writer, result Result) error {
	summary := result.Summary
	if len(result.Records) == 0 {
		reason := summary.Reason
		if reason == "" {
			reason = "no records produced"
		}
		_, err := fmt.Fprintf(w, "No weather data was collected (%s).\n", reason)
		return err
	}

	var b strings.Builder
	fmt.Fprintf(&b, "Weather data for %d cities has been collected.\n", len(result.Records))

	if summary.StorageEnabled {
		cities := make([]string, 0, reportSampleSize)
		for _, r := range result.Records {
			if len(cities) == reportSampleSize {
				break
			}
			cities = append(cities, r.Location.City)
		}
		list := strings.Join(cities, ", ")
		if extra := len(result.Records) - reportSampleSize; extra > 0 {
			list += fmt.Sprintf(", and %d more", extra)
		}

		b.WriteString("Data stored in Scaleway Object Storage:\n")
		fmt.Fprintf(&b, "  - Bucket: %s\n", summary.Bucket)
		fmt.Fprintf(&b, "  - Path: %s\n", summary.Prefix)
		fmt.Fprintf(&b, "  - Cities: %s\n", list)
		if summary.Store.Failed > 0 {
			fmt.Fprintf(&b, "  - Failed writes: %d\n", summary.Store.Failed)
		}
	} else {
		b.WriteString("Data was not stored in Scaleway (storage disabled or configuration error)\n")
	}

	_, err := io.WriteString(w, b.String())
	return err
}
