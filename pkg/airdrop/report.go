package airdrop

import (
	"os"

	"github.com/gocarina/gocsv"
	"github.com/pkg/errors"
)

type ReportRow struct {
	RunId           string `csv:"run_id"`
	Network         string `csv:"network"`
	Contract        string `csv:"contract"`
	Operator        string `csv:"operator"`
	Recipient       string `csv:"recipient"`
	Amount          string `csv:"amount"`
	TransactionHash string `csv:"transaction_hash"`
	BlockNumber     uint64 `csv:"block_number"`
	RecipientsRoot  string `csv:"recipients_root"`
}

// ReportRows expands a result into one row per recipient, in submission order.
func ReportRows(result *Result) []*ReportRow {
	rows := make([]*ReportRow, 0, len(result.Recipients))
	for _, recipient := range result.Recipients {
		rows = append(rows, &ReportRow{
			RunId:           result.RunId,
			Network:         result.Network,
			Contract:        result.Contract.Hex(),
			Operator:        result.Operator.Hex(),
			Recipient:       recipient.Hex(),
			Amount:          result.Amount.String(),
			TransactionHash: result.TransactionHash,
			BlockNumber:     result.BlockNumber,
			RecipientsRoot:  result.RecipientsRoot,
		})
	}
	return rows
}

func WriteReportFile(path string, result *Result) error {
	f, err := os.Create(path)
	if err != nil {
		return errors.Wrapf(err, "failed to create report file '%s'", path)
	}
	defer f.Close()

	if err := gocsv.Marshal(ReportRows(result), f); err != nil {
		return errors.Wrap(err, "failed to write airdrop report")
	}
	return nil
}
