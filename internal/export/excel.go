package export

import (
	"context"
	"fmt"
	"os"
	"path/filepath"
	"time"

	"postovik/internal/config"
	"postovik/internal/domain"

	"github.com/rs/zerolog"
	"github.com/xuri/excelize/v2"
)

// maxExportRows ограничивает размер отчета.
const maxExportRows = 1000

// ExcelExporter выгружает реестр синхронизированных постов в xlsx.
type ExcelExporter struct {
	cfg    config.ExportConfig
	ledger domain.Ledger
	logger *zerolog.Logger
}

func NewExcelExporter(cfg config.ExportConfig, ledger domain.Ledger, logger *zerolog.Logger) *ExcelExporter {
	return &ExcelExporter{cfg: cfg, ledger: ledger, logger: logger}
}

// Export создает отчет и возвращает путь к файлу.
func (e *ExcelExporter) Export(ctx context.Context) (string, error) {
	// Создаем папку для экспорта, если не существует
	if err := os.MkdirAll(e.cfg.Path, 0o755); err != nil {
		return "", fmt.Errorf("error creating export directory: %v", err)
	}

	posts, err := e.ledger.RecentSynced(ctx, maxExportRows)
	if err != nil {
		return "", fmt.Errorf("error getting synced posts: %v", err)
	}

	total, err := e.ledger.CountSynced(ctx)
	if err != nil {
		return "", fmt.Errorf("error counting synced posts: %v", err)
	}

	f := excelize.NewFile()
	defer f.Close()

	sheetName := "Посты"
	index, err := f.NewSheet(sheetName)
	if err != nil {
		return "", fmt.Errorf("error creating sheet: %v", err)
	}
	f.SetActiveSheet(index)

	_ = f.SetCellValue(sheetName, "A1", fmt.Sprintf("Синхронизировано постов: %d", total))
	_ = f.MergeCell(sheetName, "A1", "D1")

	titleStyle, _ := f.NewStyle(&excelize.Style{
		Font:      &excelize.Font{Bold: true, Size: 14},
		Alignment: &excelize.Alignment{Horizontal: "center"},
	})
	_ = f.SetCellStyle(sheetName, "A1", "A1", titleStyle)

	// Заголовки
	headers := []string{"ID поста", "Заголовок", "Ссылка", "Дата синхронизации"}
	headerStyle, _ := f.NewStyle(&excelize.Style{
		Fill: excelize.Fill{Type: "pattern", Color: []string{"#DDEBF7"}, Pattern: 1},
		Font: &excelize.Font{Bold: true},
	})
	for i, header := range headers {
		cell, _ := excelize.CoordinatesToCellName(i+1, 2)
		_ = f.SetCellValue(sheetName, cell, header)
		_ = f.SetCellStyle(sheetName, cell, cell, headerStyle)
	}

	// Данные реестра, свежие сверху
	for i, post := range posts {
		row := i + 3
		_ = f.SetCellValue(sheetName, fmt.Sprintf("A%d", row), post.PostID)
		_ = f.SetCellValue(sheetName, fmt.Sprintf("B%d", row), post.Title)
		_ = f.SetCellValue(sheetName, fmt.Sprintf("C%d", row), post.URL)
		_ = f.SetCellValue(sheetName, fmt.Sprintf("D%d", row), post.SyncedAt.Format("02.01.2006 15:04"))
	}

	_ = f.SetColWidth(sheetName, "A", "A", 25)
	_ = f.SetColWidth(sheetName, "B", "B", 50)
	_ = f.SetColWidth(sheetName, "C", "C", 50)
	_ = f.SetColWidth(sheetName, "D", "D", 20)

	// Удаляем стандартный лист
	_ = f.DeleteSheet("Sheet1")

	fileName := fmt.Sprintf("synced_posts_%s.xlsx", time.Now().Format("2006-01-02_15-04-05"))
	filePath := filepath.Join(e.cfg.Path, fileName)

	if err := f.SaveAs(filePath); err != nil {
		return "", fmt.Errorf("error saving file: %v", err)
	}

	e.logger.Info().Str("file_path", filePath).Int("rows", len(posts)).Msg("Excel file created")
	return filePath, nil
}
