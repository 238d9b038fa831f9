package main

import (
	"fmt"
	"io"

	trackingdto "webtally/internal/modules/tracking/dto"
	"webtally/internal/ui/components"
)

func printDay(w io.Writer, date string, total int64, domains []trackingdto.DomainTime) error {
	if _, err := fmt.Fprintf(w, "%s  %s\n", date, components.Duration(total)); err != nil {
		return err
	}
	for _, d := range domains {
		if _, err := fmt.Fprintf(w, "  %-32s %9s\n", d.Domain, components.Duration(d.Seconds)); err != nil {
			return err
		}
	}
	return nil
}
