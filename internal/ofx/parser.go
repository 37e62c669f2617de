// Package ofx reads OFX/QFX bank and credit card statements into postings.
package ofx

import (
	"context"
	"fmt"
	"io"
	"log/slog"
	"regexp"
	"sort"
	"strings"

	"github.com/aclindsa/ofxgo"
	"github.com/shopspring/decimal"

	"github.com/Veraticus/spice-ledger/internal/model"
)

var (
	severityRegex = regexp.MustCompile(`(?i)<SEVERITY>(Info|Warn|Error)</SEVERITY>`)
	tagFixRegex   = regexp.MustCompile(`(?m)^(\s*<[A-Z][A-Z0-9._]*[A-Z0-9])$`)
)

// Statement is one account's transaction list from an OFX file. Postings
// carry no ledger account yet; the importer assigns one.
type Statement struct {
	AccountNumber string
	Currency      string
	Kind          model.AccountKind
	Postings      []model.Transaction
}

// Parser implements OFX/QFX file parsing.
type Parser struct{}

// NewParser creates a new OFX parser.
func NewParser() *Parser {
	return &Parser{}
}

// preprocessOFX fixes common formatting issues in OFX files.
func (p *Parser) preprocessOFX(content string) string {
	content = strings.TrimLeft(content, " \t\r\n")

	// SEVERITY must be upper case.
	content = severityRegex.ReplaceAllStringFunc(content, strings.ToUpper)

	// Some SGML exports drop the closing bracket of a bare opening tag.
	content = tagFixRegex.ReplaceAllString(content, "$1>")

	return content
}

func (p *Parser) parse(reader io.Reader) (*ofxgo.Response, error) {
	content, err := io.ReadAll(reader)
	if err != nil {
		return nil, fmt.Errorf("failed to read OFX file: %w", err)
	}

	resp, err := ofxgo.ParseResponse(strings.NewReader(p.preprocessOFX(string(content))))
	if err != nil {
		return nil, fmt.Errorf("failed to parse OFX file: %w", err)
	}
	return resp, nil
}

// ParseFile parses an OFX/QFX file and returns its statements in file order.
func (p *Parser) ParseFile(_ context.Context, reader io.Reader) ([]Statement, error) {
	resp, err := p.parse(reader)
	if err != nil {
		return nil, err
	}

	var statements []Statement

	for _, msg := range resp.Bank {
		stmt, ok := msg.(*ofxgo.StatementResponse)
		if !ok {
			continue
		}
		statements = append(statements, Statement{
			AccountNumber: string(stmt.BankAcctFrom.AcctID),
			Currency:      stmt.CurDef.String(),
			Kind:          model.AccountKindBank,
			Postings:      p.convertList(stmt.BankTranList),
		})
	}

	for _, msg := range resp.CreditCard {
		stmt, ok := msg.(*ofxgo.CCStatementResponse)
		if !ok {
			continue
		}
		statements = append(statements, Statement{
			AccountNumber: string(stmt.CCAcctFrom.AcctID),
			Currency:      stmt.CurDef.String(),
			Kind:          model.AccountKindCreditCard,
			Postings:      p.convertList(stmt.BankTranList),
		})
	}

	total := 0
	for _, s := range statements {
		total += len(s.Postings)
	}
	slog.Info("Parsed OFX file", "statements", len(statements), "total_transactions", total)

	return statements, nil
}

func (p *Parser) convertList(list *ofxgo.TransactionList) []model.Transaction {
	if list == nil {
		return nil
	}

	postings := make([]model.Transaction, 0, len(list.Transactions))
	for i := range list.Transactions {
		txn, err := p.convertTransaction(&list.Transactions[i])
		if err != nil {
			slog.Warn("Skipping OFX transaction", "fitid", list.Transactions[i].FiTID, "error", err)
			continue
		}
		postings = append(postings, txn)
	}
	return postings
}

// convertTransaction maps an OFX line to a posting. Debits become
// expenses, everything else income.
func (p *Parser) convertTransaction(ofxTx *ofxgo.Transaction) (model.Transaction, error) {
	amount, err := decimal.NewFromString(ofxTx.TrnAmt.FloatString(4))
	if err != nil {
		return model.Transaction{}, fmt.Errorf("invalid amount: %w", err)
	}

	typ := model.TransactionTypeIncome
	if amount.IsNegative() {
		typ = model.TransactionTypeExpense
	}

	usage := fmt.Sprintf("%v", ofxTx.TrnType) // e.g. DEBIT, CHECK, ATM
	if ofxTx.CheckNum != "" {
		usage += " " + string(ofxTx.CheckNum)
	}

	return model.Transaction{
		Type:       typ,
		Amount:     model.NormalizeAmount(typ, amount),
		Date:       ofxTx.DtPosted.Time.UTC(),
		Note:       p.extractMerchantName(ofxTx),
		Usage:      usage,
		ExternalID: string(ofxTx.FiTID),
	}, nil
}

// extractMerchantName tries to get a clean merchant name from OFX data.
func (p *Parser) extractMerchantName(tx *ofxgo.Transaction) string {
	// PAYEE is usually the cleanest
	if tx.Payee != nil && tx.Payee.Name != "" {
		return string(tx.Payee.Name)
	}

	name := string(tx.Name)
	if tx.Memo != "" && isGenericDescription(name) {
		name = string(tx.Memo)
	}
	name = strings.TrimSpace(name)

	prefixes := []string{
		"POS PURCHASE ",
		"PURCHASE AUTHORIZED ON ",
		"DEBIT CARD PURCHASE ",
		"ACH DEBIT ",
		"CHECK CARD ",
		"VISA PURCHASE ",
		"MC PURCHASE ",
		"DEBIT PURCHASE ",
	}
	for _, prefix := range prefixes {
		if strings.HasPrefix(strings.ToUpper(name), prefix) {
			name = name[len(prefix):]
			break
		}
	}

	// Drop a leading "MM/DD " date.
	if len(name) > 5 && name[2] == '/' && name[5] == ' ' {
		name = strings.TrimSpace(name[6:])
	}

	return name
}

func isGenericDescription(name string) bool {
	switch strings.ToUpper(name) {
	case "DEBIT", "CREDIT", "PURCHASE", "PAYMENT", "POS TRANSACTION", "CARD PURCHASE":
		return true
	default:
		return false
	}
}

// GetAccounts returns the distinct account numbers in an OFX file, sorted.
func (p *Parser) GetAccounts(_ context.Context, reader io.Reader) ([]string, error) {
	resp, err := p.parse(reader)
	if err != nil {
		return nil, err
	}

	seen := make(map[string]bool)
	for _, msg := range resp.Bank {
		if stmt, ok := msg.(*ofxgo.StatementResponse); ok && stmt.BankAcctFrom.AcctID != "" {
			seen[string(stmt.BankAcctFrom.AcctID)] = true
		}
	}
	for _, msg := range resp.CreditCard {
		if stmt, ok := msg.(*ofxgo.CCStatementResponse); ok && stmt.CCAcctFrom.AcctID != "" {
			seen[string(stmt.CCAcctFrom.AcctID)] = true
		}
	}

	accounts := make([]string, 0, len(seen))
	for acct := range seen {
		accounts = append(accounts, acct)
	}
	sort.Strings(accounts)
	return accounts, nil
}
