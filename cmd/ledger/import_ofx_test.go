package main

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const checkingStatement = `OFXHEADER:100
DATA:OFXSGML
VERSION:102
SECURITY:NONE
ENCODING:USASCII
CHARSET:1252
COMPRESSION:NONE
OLDFILEUID:NONE
NEWFILEUID:NONE

<OFX>
<SIGNONMSGSRSV1>
<SONRS>
<STATUS>
<CODE>0
<SEVERITY>INFO
</STATUS>
<DTSERVER>20240315120000[0:GMT]
<LANGUAGE>ENG
</SONRS>
</SIGNONMSGSRSV1>
<BANKMSGSRSV1>
<STMTTRNRS>
<TRNUID>1
<STATUS>
<CODE>0
<SEVERITY>INFO
</STATUS>
<STMTRS>
<CURDEF>USD
<BANKACCTFROM>
<BANKID>123456789
<ACCTID>1234567890
<ACCTTYPE>CHECKING
</BANKACCTFROM>
<BANKTRANLIST>
<DTSTART>20240101120000[0:GMT]
<DTEND>20240131120000[0:GMT]
<STMTTRN>
<TRNTYPE>DEBIT
<DTPOSTED>20240115120000[0:GMT]
<TRNAMT>-25.50
<FITID>2024011501
<NAME>STARBUCKS STORE #1234
</STMTTRN>
<STMTTRN>
<TRNTYPE>CREDIT
<DTPOSTED>20240130120000[0:GMT]
<TRNAMT>2150.75
<FITID>2024013001
<NAME>PAYMENT
<MEMO>ACME CORP PAYROLL
</STMTTRN>
</BANKTRANLIST>
<LEDGERBAL>
<BALAMT>1000.00
<DTASOF>20240131120000[0:GMT]
</LEDGERBAL>
</STMTRS>
</STMTTRNRS>
</BANKMSGSRSV1>
</OFX>`

func TestCLI_ImportOFX(t *testing.T) {
	dir := t.TempDir()
	dbPath := filepath.Join(dir, "ledger.db")
	statement := filepath.Join(dir, "checking.ofx")
	require.NoError(t, os.WriteFile(statement, []byte(checkingStatement), 0o600))

	mustRun(t, dbPath, "accounts", "add", "Checking")

	t.Run("unknown statement lists account numbers", func(t *testing.T) {
		out := mustRun(t, dbPath, "import-ofx", statement, "--account", "Checking", "--statement", "999")
		assert.Contains(t, out, "0 posting(s)")
		assert.Contains(t, out, "No statement for 999")
		assert.Contains(t, out, "1234567890")
	})

	t.Run("imports matching statement", func(t *testing.T) {
		out := mustRun(t, dbPath, "import-ofx", statement, "--account", "Checking", "--statement", "1234567890")
		assert.Contains(t, out, "Import complete")
		assert.Contains(t, out, "Imported 2 new posting(s) into Checking")

		out = mustRun(t, dbPath, "accounts", "balance", "Checking")
		assert.Contains(t, out, "$2,125.25")
	})

	t.Run("reimport skips known lines", func(t *testing.T) {
		out := mustRun(t, dbPath, "import-ofx", statement, "--account", "Checking")
		assert.Contains(t, out, "Imported 0 new posting(s) into Checking")
		assert.Contains(t, out, "2 already imported")
	})
}
