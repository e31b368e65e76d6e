package ingress

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestValidateURL_SchemePrepended(t *testing.T) {
	canonical, hostname, err := ValidateURL("example.com")
	require.NoError(t, err)
	assert.Equal(t, "https://example.com", canonical)
	assert.Equal(t, "example.com", hostname)
}

func TestValidateURL_PreservesPathQueryFragment(t *testing.T) {
	canonical, hostname, err := ValidateURL("https://example.com/a/b?x=1#frag")
	require.NoError(t, err)
	assert.Equal(t, "https://example.com/a/b?x=1#frag", canonical)
	assert.Equal(t, "example.com", hostname)
}

func TestValidateURL_LowercasesHost(t *testing.T) {
	canonical, hostname, err := ValidateURL("HTTPS://ExAmPle.COM/Path")
	require.NoError(t, err)
	assert.Equal(t, "https://example.com/Path", canonical)
	assert.Equal(t, "example.com", hostname)
}

func TestValidateURL_ElidesDefaultPort(t *testing.T) {
	tests := []struct {
		raw  string
		want string
	}{
		{"https://example.com:443/a", "https://example.com/a"},
		{"http://example.com:80/a", "http://example.com/a"},
		{"https://example.com:8443/a", "https://example.com:8443/a"},
		{"http://example.com:443/a", "http://example.com:443/a"},
	}
	for _, tt := range tests {
		canonical, _, err := ValidateURL(tt.raw)
		require.NoError(t, err, tt.raw)
		assert.Equal(t, tt.want, canonical, tt.raw)
	}

	// Both spellings of the same origin collapse to one canonical URL
	explicit, _, err := ValidateURL("https://example.com:443/a")
	require.NoError(t, err)
	implicit, _, err := ValidateURL("https://example.com/a")
	require.NoError(t, err)
	assert.Equal(t, implicit, explicit)
}

func TestValidateURL_Rejections(t *testing.T) {
	tests := []struct {
		name string
		raw  string
		code string
	}{
		{"missing", "", CodeURLMissing},
		{"whitespace only", "   ", CodeURLEmpty},
		{"bad protocol", "ftp://example.com", CodeInvalidProtocol},
		{"javascript scheme", "javascript://alert(1)", CodeInvalidProtocol},
		{"no hostname", "https://", CodeInvalidHostname},
		{"no tld", "https://intranethost", CodeNoTLD},
		{"raw ipv4", "http://127.0.0.1/", CodeRawIP},
		{"raw ipv4 no scheme", "192.168.1.1", CodeRawIP},
		{"raw ipv6", "http://[::1]/", CodeRawIP},
		{"spaces in host", "https://exa mple.com", CodeURLMalformed},
		{"bad label chars", "https://exam!ple.com", CodeInvalidHostname},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, _, err := ValidateURL(tt.raw)
			require.Error(t, err)
			assert.Equal(t, tt.code, CodeOf(err))
		})
	}
}

func TestValidateURL_LengthLimit(t *testing.T) {
	long := "https://example.com/"
	for len(long) <= maxURLLength {
		long += "aaaaaaaaaa"
	}
	_, _, err := ValidateURL(long)
	require.Error(t, err)
	assert.Equal(t, CodeURLMalformed, CodeOf(err))
}
