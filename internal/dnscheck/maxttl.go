// Package dnscheck contrasta el max TTL que reporta la plataforma con lo que se
// observa consultando el DNS público de la zona. Solo diagnóstico.
package dnscheck

import (
	"context"
	"fmt"

	"github.com/miekg/dns"
)

// Probe implementa rollover.TTLProbe consultando un resolver directo.
type Probe struct {
	// Resolver es host:port del servidor a consultar.
	Resolver string

	client *dns.Client
}

// New crea un probe contra el resolver dado.
func New(resolver string) *Probe {
	return &Probe{
		Resolver: resolver,
		client:   new(dns.Client),
	}
}

// queryTypes son los RRsets representativos del ápex: los que firman las ZSKs y
// dominan la propagación en caches.
var queryTypes = []uint16{dns.TypeSOA, dns.TypeNS, dns.TypeDNSKEY}

// MaxTTL devuelve el TTL más alto observado en el ápex de la zona.
func (p *Probe) MaxTTL(ctx context.Context, domain string) (uint32, error) {
	fqdn := dns.Fqdn(domain)

	var max uint32
	var answered bool
	for _, qtype := range queryTypes {
		m := new(dns.Msg)
		m.SetQuestion(fqdn, qtype)
		m.SetEdns0(4096, true)

		r, _, err := p.client.ExchangeContext(ctx, m, p.Resolver)
		if err != nil {
			return 0, fmt.Errorf("dnscheck: query %s %s: %w", fqdn, dns.TypeToString[qtype], err)
		}
		if r.Rcode != dns.RcodeSuccess {
			continue
		}
		answered = true
		max = maxTTL(r.Answer, max)
	}

	if !answered {
		return 0, fmt.Errorf("dnscheck: no usable answers for %s from %s", fqdn, p.Resolver)
	}
	return max, nil
}

// maxTTL devuelve el mayor TTL entre cur y los records dados.
func maxTTL(rrs []dns.RR, cur uint32) uint32 {
	for _, rr := range rrs {
		if ttl := rr.Header().Ttl; ttl > cur {
			cur = ttl
		}
	}
	return cur
}
