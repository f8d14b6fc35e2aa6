package email

type TransportMode string

const (
	// TransportImplicitTLS wraps the connection in TLS before the greeting.
	TransportImplicitTLS TransportMode = "implicit_tls"
	// TransportStartTLS requires the server to upgrade with STARTTLS.
	TransportStartTLS TransportMode = "starttls"
	// TransportOpportunistic upgrades only when the server offers STARTTLS.
	TransportOpportunistic TransportMode = "opportunistic"
	TransportPlain         TransportMode = "plain"
)

const (
	portSMTPS      = 465
	portSubmission = 587
)

// SelectTransport picks the connection mode from the port. Well-known ports
// override the secure flag, which is only consulted for other ports.
func SelectTransport(port int, secure bool, localTestPort int) TransportMode {
	switch {
	case port == portSMTPS:
		return TransportImplicitTLS
	case port == portSubmission:
		return TransportStartTLS
	case localTestPort > 0 && port == localTestPort:
		return TransportPlain
	case secure:
		return TransportImplicitTLS
	default:
		return TransportOpportunistic
	}
}
