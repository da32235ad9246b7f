package fetch

import (
	"errors"
	"fmt"
	"net"
	"strings"
	"syscall"

	"github.com/yl2chen/cidranger"
)

var (
	ErrDeniedTarget = errors.New("fetch: target address is in a denied network")
	ErrBadNetwork   = errors.New("fetch: invalid denied network")
)

func parseNetworks(cidrs []string) (cidranger.Ranger, error) {
	ranger := cidranger.NewPCTrieRanger()
	var errs []error

	for _, cidr := range cidrs {
		cidr = strings.TrimSpace(cidr)
		if cidr == "" {
			continue
		}

		_, rng, err := net.ParseCIDR(cidr)
		if err != nil {
			errs = append(errs, fmt.Errorf("%w: range %s not parsing: %w", ErrBadNetwork, cidr, err))
			continue
		}

		if err := ranger.Insert(cidranger.NewBasicRangerEntry(*rng)); err != nil {
			errs = append(errs, fmt.Errorf("%w: can't insert %s: %w", ErrBadNetwork, cidr, err))
		}
	}

	if len(errs) != 0 {
		return nil, errors.Join(errs...)
	}

	return ranger, nil
}

// denyControl runs after DNS resolution and before connecting, so it sees
// the real address even when a hostname points somewhere it shouldn't.
func denyControl(ranger cidranger.Ranger) func(network, address string, c syscall.RawConn) error {
	return func(network, address string, _ syscall.RawConn) error {
		host, _, err := net.SplitHostPort(address)
		if err != nil {
			return fmt.Errorf("%w: %s", ErrDeniedTarget, address)
		}

		ip := net.ParseIP(host)
		if ip == nil {
			return fmt.Errorf("%w: %s is not an IP address", ErrDeniedTarget, host)
		}

		ok, err := ranger.Contains(ip)
		if err != nil {
			return fmt.Errorf("%w: %w", ErrDeniedTarget, err)
		}

		if ok {
			return fmt.Errorf("%w: %s", ErrDeniedTarget, ip)
		}

		return nil
	}
}

// SplitNetworks turns a comma separated flag value into CIDR strings.
func SplitNetworks(value string) []string {
	var result []string
	for _, cidr := range strings.Split(value, ",") {
		if cidr = strings.TrimSpace(cidr); cidr != "" {
			result = append(result, cidr)
		}
	}
	return result
}
