package xlsxGenerator

import (
	"context"
	"fmt"
	"log/slog"

	"github.com/dealflow-tools/onboarding_bot/internal/model"
	"github.com/dealflow-tools/onboarding_bot/utils"
	"github.com/xuri/excelize/v2"
)

type XLSXGenerator struct{}

func New() *XLSXGenerator {
	return &XLSXGenerator{}
}

// Generate builds the investor roster workbook for one deal: a summary block
// followed by one row per investor.
func (g *XLSXGenerator) Generate(ctx context.Context, deal model.Deal, investors []model.Investor) (fileBytes []byte, fileExtension string, err error) {
	rqID := utils.GetRequestIDFromCtx(ctx)
	op := "XLSXGenerator.Generate"

	slog.Debug("Generate start", slog.String("rqID", rqID), slog.String("op", op), slog.Int64("dealID", deal.ID))

	f := excelize.NewFile()
	defer func() {
		if err := f.Close(); err != nil {
			slog.Error("got error while closing file", slog.String("rqID", rqID), slog.String("op", op), slog.String("err", err.Error()))
		}
	}()

	sheetName := "Investors"
	if _, err := f.NewSheet(sheetName); err != nil {
		slog.Error("got error while creating NewSheet", slog.String("rqID", rqID), slog.String("op", op), slog.String("err", err.Error()))
		return nil, "", err
	}

	if err := f.DeleteSheet("Sheet1"); err != nil {
		slog.Error("got error while deleting Sheet1", slog.String("rqID", rqID), slog.String("op", op), slog.String("err", err.Error()))
	}

	headerStyle, err := f.NewStyle(&excelize.Style{
		Alignment: &excelize.Alignment{
			Horizontal: "center",
			Vertical:   "center",
		},
		Font: &excelize.Font{
			Bold: true,
			Size: 11,
		},
		Fill: excelize.Fill{
			Type:    "pattern",
			Pattern: 1,
			Color:   []string{"#cfe2f3"},
		},
	})
	if err != nil {
		return nil, "", err
	}

	// deal summary
	if err := f.MergeCell(sheetName, "A1", "J1"); err != nil {
		return nil, "", err
	}

	f.SetCellValue(sheetName, "A1", fmt.Sprintf("%s (deal %d, %s)", deal.Title, deal.ID, deal.State))
	if err := f.SetCellStyle(sheetName, "A1", "A1", headerStyle); err != nil {
		return nil, "", fmt.Errorf("apply style: %w", err)
	}

	_ = f.SetCellStr(sheetName, "A2", "price per security")
	_ = f.SetCellValue(sheetName, "B2", deal.PricePerSecurity.InexactFloat64())
	_ = f.SetCellStr(sheetName, "C2", "subscribed")
	_ = f.SetCellValue(sheetName, "D2", deal.AmountSubscribed.InexactFloat64())
	_ = f.SetCellStr(sheetName, "E2", "received")
	_ = f.SetCellValue(sheetName, "F2", deal.FundsReceived.InexactFloat64())
	_ = f.SetCellStr(sheetName, "G2", "investors")
	_ = f.SetCellInt(sheetName, "H2", deal.InvestorsTotal)

	// roster header
	_ = f.SetCellStr(sheetName, "A4", "name")
	_ = f.SetCellStr(sheetName, "B4", "email")
	_ = f.SetCellStr(sheetName, "C4", "phone")
	_ = f.SetCellStr(sheetName, "D4", "state")
	_ = f.SetCellStr(sheetName, "E4", "funding state")
	_ = f.SetCellStr(sheetName, "F4", "investment")
	_ = f.SetCellStr(sheetName, "G4", "securities")
	_ = f.SetCellStr(sheetName, "H4", "funds value")
	_ = f.SetCellStr(sheetName, "I4", "address")
	_ = f.SetCellStr(sheetName, "J4", "created")

	for i, investor := range investors {
		row := i + 5
		_ = f.SetCellStr(sheetName, fmt.Sprintf("A%d", row), investor.Name)
		_ = f.SetCellStr(sheetName, fmt.Sprintf("B%d", row), investor.Email)
		_ = f.SetCellStr(sheetName, fmt.Sprintf("C%d", row), investor.PhoneNumber)
		_ = f.SetCellStr(sheetName, fmt.Sprintf("D%d", row), investor.State)
		_ = f.SetCellStr(sheetName, fmt.Sprintf("E%d", row), investor.FundingState)
		_ = f.SetCellValue(sheetName, fmt.Sprintf("F%d", row), investor.InvestmentValue.InexactFloat64())
		_ = f.SetCellInt(sheetName, fmt.Sprintf("G%d", row), investor.NumberOfSecurities)
		_ = f.SetCellValue(sheetName, fmt.Sprintf("H%d", row), investor.FundsValue.InexactFloat64())
		_ = f.SetCellStr(sheetName, fmt.Sprintf("I%d", row), investor.BeneficialAddress)
		_ = f.SetCellStr(sheetName, fmt.Sprintf("J%d", row), investor.CreatedAt)
	}

	buf, err := f.WriteToBuffer()
	if err != nil {
		slog.Error("got error while saving file to bytes buffer", slog.String("rqID", rqID), slog.String("op", op), slog.String("err", err.Error()))
		return nil, "", err
	}

	slog.Debug("Generate completed", slog.String("rqID", rqID), slog.String("op", op))

	return buf.Bytes(), ".xlsx", nil
}
