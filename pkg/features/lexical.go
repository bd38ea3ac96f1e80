package features

import (
	"strconv"
	"strings"
	"unicode/utf8"

	"phishjudge/pkg/common"
)

var shorteners = []string{
	"bit.ly", "tinyurl.com", "goo.gl", "ow.ly", "t.co",
	"is.gd", "buff.ly", "adf.ly", "bit.do", "cutt.ly",
}

func ipAddress(in *Input) Score {
	if common.IsIPHost(in.Host()) {
		return Suspicious
	}
	return Benign
}

func urlLength(in *Input) Score {
	n := utf8.RuneCountInString(in.URL)
	switch {
	case n < 54:
		return Benign
	case n <= 75:
		return Unknown
	default:
		return Suspicious
	}
}

// shortener matches the host or any parent of it against known services.
func shortener(in *Input) Score {
	host := in.Hostname()
	for _, svc := range shorteners {
		if host == svc || strings.HasSuffix(host, "."+svc) {
			return Suspicious
		}
	}
	return Benign
}

func atSymbol(in *Input) Score {
	if strings.Contains(in.URL, "@") {
		return Suspicious
	}
	return Benign
}

// doubleSlash looks for "//" past the scheme separator.
func doubleSlash(in *Input) Score {
	if len(in.URL) > 7 && strings.Contains(in.URL[7:], "//") {
		return Suspicious
	}
	return Benign
}

func prefixSuffix(in *Input) Score {
	first, _, _ := strings.Cut(in.Host(), ".")
	if strings.Contains(first, "-") {
		return Suspicious
	}
	return Benign
}

func subDomain(in *Input) Score {
	switch dots := strings.Count(in.Hostname(), "."); {
	case dots <= 1:
		return Benign
	case dots == 2:
		return Unknown
	default:
		return Suspicious
	}
}

func sslFinalState(in *Input) Score {
	if in.scheme != "https" {
		return Suspicious
	}
	return Benign
}

func port(in *Input) Score {
	raw := common.Port(in.URL)
	if raw == "" {
		return Benign
	}
	p, err := strconv.Atoi(raw)
	if err != nil || p <= 0 || p > 65535 {
		return Unknown
	}
	if (in.scheme == "http" && p == 80) || (in.scheme == "https" && p == 443) {
		return Benign
	}
	return Suspicious
}

func httpsToken(in *Input) Score {
	if strings.Contains(in.Host(), "https") && in.scheme != "https" {
		return Suspicious
	}
	return Benign
}
