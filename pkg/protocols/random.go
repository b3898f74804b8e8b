package protocols

import (
	"crypto/rand"
	"math/big"

	"github.com/google/uuid"
)

const secretAlphabet = "abcdefghijklmnopqrstuvwxyzABCDEFGHIJKLMNOPQRSTUVWXYZ0123456789"

// randomSecret returns a 10 character alphanumeric string suitable for
// passwords and account names.
func randomSecret() string {
	b := make([]byte, 10)
	max := big.NewInt(int64(len(secretAlphabet)))
	for i := range b {
		n, err := rand.Int(rand.Reader, max)
		if err != nil {
			// crypto/rand only fails when the platform source is broken
			panic(err)
		}
		b[i] = secretAlphabet[n.Int64()]
	}
	return string(b)
}

// MaterializeDefaults fills every empty credential field (client uuids,
// passwords, account names) with random values and pins them on the inbound,
// so that later Serialize and AccessLink calls are stable. Serialize and
// AccessLink run it implicitly; calling it first lets the caller read the
// generated credentials before submission.
func (in *Inbound) MaterializeDefaults() {
	if in.Stream != nil {
		in.Stream.normalize()
	}
	if in.Settings != nil {
		materializeCredentials(in.Settings)
	}
}

// materializeCredentials fills every empty credential field in place so that
// the same inbound serializes identically on repeated calls.
func materializeCredentials(s Settings) {
	switch v := s.(type) {
	case *VMessSettings:
		for i := range v.Clients {
			if v.Clients[i].ID == "" {
				v.Clients[i].ID = uuid.NewString()
			}
		}
	case *VLessSettings:
		for i := range v.Clients {
			if v.Clients[i].ID == "" {
				v.Clients[i].ID = uuid.NewString()
			}
		}
	case *TrojanSettings:
		for i := range v.Clients {
			if v.Clients[i].Password == "" {
				v.Clients[i].Password = randomSecret()
			}
		}
	case *ShadowsocksSettings:
		if v.Password == "" {
			v.Password = randomSecret()
		}
		for i := range v.Clients {
			if v.Clients[i].Password == "" {
				v.Clients[i].Password = randomSecret()
			}
		}
	case *SocksSettings:
		if v.Auth == AuthPassword {
			fillAccounts(v.Accounts)
		}
	case *HTTPSettings:
		fillAccounts(v.Accounts)
	}
}

func fillAccounts(accounts []Account) {
	for i := range accounts {
		if accounts[i].User == "" {
			accounts[i].User = randomSecret()
		}
		if accounts[i].Pass == "" {
			accounts[i].Pass = randomSecret()
		}
	}
}
