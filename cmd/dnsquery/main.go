// Command dnsquery sends a single DNS query over UDP and prints the
// parsed response, for manually exercising internal/wire and a
// running dnsforward instance.
package main

import (
	"errors"
	"flag"
	"fmt"
	"math/rand/v2"
	"net"
	"os"
	"sort"
	"strings"
	"time"

	"github.com/duskrelay/dnsforward/internal/wire"
)

func main() {
	var (
		server  = flag.String("server", "127.0.0.1:3553", "DNS server HOST:PORT")
		name    = flag.String("name", "example.com", "Query name")
		qtype   = flag.Uint("qtype", 1, "Query type (numeric, A=1)")
		timeout = flag.Duration("timeout", 2*time.Second, "Timeout")
		quiet   = flag.Bool("quiet", false, "Suppress output (exit status indicates success)")
	)
	flag.Parse()

	resp, err := queryUDP(*server, *name, wire.RecordType(*qtype), *timeout)
	if err != nil {
		if !*quiet {
			fmt.Fprintf(os.Stderr, "dnsquery error: %v\n", err)
		}
		os.Exit(1)
	}
	if *quiet {
		return
	}

	m, err := wire.Parse(resp)
	if err != nil {
		fmt.Printf("received %d bytes (unparseable: %v)\n", len(resp), err)
		return
	}

	fmt.Printf("id=%d rcode=%d answers=%d authorities=%d additionals=%d\n",
		m.Header.ID,
		wire.RCodeFromFlags(m.Header.Flags),
		len(m.Answers),
		len(m.Authorities),
		len(m.Additionals),
	)

	rows := make([]string, 0, len(m.Answers))
	for _, rr := range m.Answers {
		rows = append(rows, formatRR(rr))
	}
	sort.Strings(rows)
	for _, s := range rows {
		fmt.Println(s)
	}
}

func queryUDP(server, name string, qtype wire.RecordType, timeout time.Duration) ([]byte, error) {
	addr, err := net.ResolveUDPAddr("udp", server)
	if err != nil {
		return nil, err
	}
	c, err := net.DialUDP("udp", nil, addr)
	if err != nil {
		return nil, err
	}
	defer c.Close()

	reqBytes, err := buildQuery(name, qtype)
	if err != nil {
		return nil, err
	}
	_ = c.SetDeadline(time.Now().Add(timeout))
	if _, err := c.Write(reqBytes); err != nil {
		return nil, err
	}
	buf := make([]byte, 512)
	n, err := c.Read(buf)
	if err != nil {
		return nil, err
	}
	return buf[:n], nil
}

func buildQuery(name string, qtype wire.RecordType) ([]byte, error) {
	if strings.TrimSpace(name) == "" {
		return nil, errors.New("name required")
	}
	m := wire.Message{
		Header: wire.Header{
			ID:      uint16(rand.IntN(1 << 16)),
			Flags:   wire.RDFlag,
			QDCount: 1,
		},
		Questions: []wire.Question{
			{Name: strings.TrimSuffix(name, "."), Type: qtype, Class: wire.ClassIN},
		},
	}
	return wire.Serialize(m)
}

func formatRR(rr wire.ResourceRecord) string {
	name := rr.Name
	if name == "" {
		name = "."
	}
	switch d := rr.Data.(type) {
	case wire.AData:
		return fmt.Sprintf("%s %d IN A %s", name, rr.TTL, d.IPv4String())
	case wire.AAAAData:
		return fmt.Sprintf("%s %d IN AAAA %s", name, rr.TTL, net.IP(d.Addr[:]).String())
	case wire.CNAMEData:
		return fmt.Sprintf("%s %d IN CNAME %s", name, rr.TTL, d.CName)
	case wire.NSData:
		return fmt.Sprintf("%s %d IN NS %s", name, rr.TTL, d.NSDName)
	case wire.MXData:
		return fmt.Sprintf("%s %d IN MX %d %s", name, rr.TTL, d.Preference, d.Exchange)
	case wire.TXTData:
		return fmt.Sprintf("%s %d IN TXT %q", name, rr.TTL, d.Text)
	default:
		return fmt.Sprintf("%s %d IN TYPE%d (unparsed)", name, rr.TTL, rr.Type())
	}
}
