package config

import (
	"strings"

	"golang.org/x/net/publicsuffix"
)

// candidateParents returns host's ancestor domains, closest first, down to
// (and including) its registrable domain (e.g. "a.b.example.com" ->
// ["b.example.com", "example.com"]). Used to resolve
// DynamicFetchPolicyMap overrides registered at a parent domain.
func candidateParents(host string) []string {
	host = strings.ToLower(strings.TrimSuffix(host, "."))
	registrable, err := publicsuffix.EffectiveTLDPlusOne(host)
	if err != nil {
		// Not a recognized public suffix shape (e.g. "localhost"); there is
		// no meaningful parent to climb to.
		return nil
	}

	var parents []string
	labels := strings.Split(host, ".")
	registrableLabels := strings.Count(registrable, ".") + 1

	for len(labels) > registrableLabels {
		labels = labels[1:]
		parents = append(parents, strings.Join(labels, "."))
	}
	if len(parents) == 0 || parents[len(parents)-1] != registrable {
		parents = append(parents, registrable)
	}
	return parents
}
