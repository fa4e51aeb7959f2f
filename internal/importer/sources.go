package importer

import (
	"fmt"

	"github.com/Tuncayozalici/ONERI-sub000/internal/model"
	"github.com/Tuncayozalici/ONERI-sub000/internal/parser"
)

// 数据源名称
const (
	SourceProduction     = "uretim"
	SourceDowntime       = "durus"
	SourceQualityErrors  = "kalite_hata"
	SourcePaintErrors    = "boya_hata"
	SourceAssemblyErrors = "montaj_hata"
	SourceCnc            = "cnc"
	SourcePress          = "pres"
	SourceWelding        = "kaynak"
	SourcePaint          = "boyahane"
	SourceMaintenance    = "bakim"
	SourceScrap          = "fire"
)

// AllSources 构建快照时的读取顺序
var AllSources = []string{
	SourceProduction,
	SourceDowntime,
	SourceQualityErrors,
	SourcePaintErrors,
	SourceAssemblyErrors,
	SourceCnc,
	SourcePress,
	SourceWelding,
	SourcePaint,
	SourceMaintenance,
	SourceScrap,
}

// 列键
const (
	colDate       = "date"
	colDepartment = "department"
	colProduct    = "product"
	colShift      = "shift"
	colPlanned    = "planned"
	colProduced   = "produced"
	colFire       = "fire"
	colMachine    = "machine"
	colReason     = "reason"
	colMinutes    = "minutes"
	colOperator   = "operator"
	colCount      = "count"
	colPerf       = "performance"
	colAvail      = "availability"
	colQuality    = "quality"
	colOEE        = "oee"
	colEffective  = "effective"
	colLine       = "line"
	colHung       = "hung"
	colPainted    = "painted"
	colRework     = "rework"
	colFaultType  = "faultType"
	colTechnician = "technician"
	colMaterial   = "material"
	colQuantity   = "quantity"
)

var dateAliases = []string{"Tarih", "Gün", "Date", "Kayıt Tarihi", "Üretim Tarihi"}

func nonNegative(field string, v int) error {
	if v < 0 {
		return fmt.Errorf("negative %s: %d", field, v)
	}
	return nil
}

func productionSource() sourceDef[model.ProductionRow] {
	return sourceDef[model.ProductionRow]{
		name:   SourceProduction,
		files:  []string{"uretim_takip.xlsx", "Uretim Takip.xlsx", "Üretim Takip.xlsx", "uretim.xlsx"},
		sheets: []string{"Üretim", "Uretim", "Üretim Takip"},
		columns: []parser.ColumnSpec{
			parser.Col(colDate, 0, dateAliases...),
			parser.Col(colDepartment, 1, "Bölüm", "Departman", "Birim"),
			parser.Col(colProduct, 2, "Ürün", "Ürün Adı", "Ürün Kodu", "Model"),
			parser.Col(colShift, 3, "Vardiya Durumu", "Vardiya", "Durum"),
			parser.Col(colPlanned, 4, "Planlanan", "Plan", "Hedef", "Planlanan Adet"),
			parser.Col(colProduced, 5, "Üretilen", "Gerçekleşen", "Üretim Adedi", "Üretilen Adet"),
			parser.Col(colFire, 6, "Fire", "Fire Adedi", "Hurda"),
		},
		mapRow: func(r rowReader) (model.ProductionRow, error) {
			rec := model.ProductionRow{
				Date:           r.date(colDate),
				Department:     r.text(colDepartment),
				Product:        r.text(colProduct),
				ShiftCondition: r.text(colShift),
				Planned:        r.count(colPlanned),
				Produced:       r.count(colProduced),
				Fire:           r.count(colFire),
				RowNo:          r.row,
			}
			if err := nonNegative("planned", rec.Planned); err != nil {
				return rec, err
			}
			return rec, nonNegative("produced", rec.Produced)
		},
	}
}

func downtimeSource() sourceDef[model.DowntimeRow] {
	return sourceDef[model.DowntimeRow]{
		name:   SourceDowntime,
		files:  []string{"durus_kayitlari.xlsx", "Durus Listesi.xlsx", "Duruş Listesi.xlsx", "durus.xlsx"},
		sheets: []string{"Duruşlar", "Duruş", "Durus", "Duruş Listesi"},
		columns: []parser.ColumnSpec{
			parser.Col(colDate, 0, dateAliases...),
			parser.Col(colMachine, 1, "Makine", "Makine Adı", "Tezgah", "Ekipman"),
			parser.Col(colDepartment, 2, "Bölüm", "Departman"),
			parser.Col(colReason, 3, "Duruş Nedeni", "Duruş Sebebi", "Neden", "Açıklama"),
			parser.Col(colShift, 4, "Vardiya"),
			parser.Col(colMinutes, 5, "Süre", "Süre (dk)", "Duruş Süresi", "Dakika"),
		},
		mapRow: func(r rowReader) (model.DowntimeRow, error) {
			return model.DowntimeRow{
				Date:       r.date(colDate),
				Machine:    r.text(colMachine),
				Department: r.text(colDepartment),
				Reason:     r.text(colReason),
				Shift:      r.text(colShift),
				Minutes:    r.minutes(colMinutes),
				RowNo:      r.row,
			}, nil
		},
	}
}

var errorColumns = []parser.ColumnSpec{
	parser.Col(colDate, 0, dateAliases...),
	parser.Col(colDepartment, 1, "Bölüm", "Departman", "Hata Bölümü", "İstasyon"),
	parser.Col(colOperator, 2, "Operatör", "Personel", "Sorumlu", "Çalışan"),
	parser.Col(colReason, 3, "Hata Nedeni", "Hata Sebebi", "Hata Açıklaması", "Hata Tipi", "Hata"),
	parser.Col(colCount, 4, "Adet", "Hata Adedi", "Miktar", "Sayı"),
}

func errorSource(name string, src model.ErrorSource, files, sheets []string) sourceDef[model.ErrorRow] {
	return sourceDef[model.ErrorRow]{
		name:    name,
		files:   files,
		sheets:  sheets,
		columns: errorColumns,
		mapRow: func(r rowReader) (model.ErrorRow, error) {
			rec := model.ErrorRow{
				Date:       r.date(colDate),
				Source:     src,
				Department: r.text(colDepartment),
				Operator:   r.text(colOperator),
				Reason:     r.text(colReason),
				Count:      r.count(colCount),
				RowNo:      r.row,
			}
			return rec, nonNegative("count", rec.Count)
		},
	}
}

func qualityErrorSource() sourceDef[model.ErrorRow] {
	return errorSource(SourceQualityErrors, model.ErrorSourceQuality,
		[]string{"kalite_hata.xlsx", "Kalite Hata Listesi.xlsx", "Hata Listesi.xlsx"},
		[]string{"Hatalar", "Hata Listesi", "Kalite"})
}

func paintErrorSource() sourceDef[model.ErrorRow] {
	return errorSource(SourcePaintErrors, model.ErrorSourcePaint,
		[]string{"boya_hata.xlsx", "Boya Hata Listesi.xlsx", "Boyahane Hata.xlsx"},
		[]string{"Hatalar", "Hata Listesi", "Boya"})
}

func assemblyErrorSource() sourceDef[model.ErrorRow] {
	return errorSource(SourceAssemblyErrors, model.ErrorSourceAssembly,
		[]string{"montaj_hata.xlsx", "Montaj Hata Listesi.xlsx", "Montaj Hata.xlsx"},
		[]string{"Hatalar", "Hata Listesi", "Montaj"})
}

var efficiencyColumns = []parser.ColumnSpec{
	parser.Col(colPerf, -1, "Performans", "Performans %", "Performance"),
	parser.Col(colAvail, -1, "Kullanılabilirlik", "Kullanılabilirlik %", "Erişilebilirlik", "Availability"),
	parser.Col(colQuality, -1, "Kalite", "Kalite %", "Quality"),
	parser.Col(colOEE, -1, "OEE", "OEE %", "Toplam Verimlilik"),
}

// withPositions 给效率列加上该数据源的固定位置
func withPositions(specs []parser.ColumnSpec, positions map[string]int) []parser.ColumnSpec {
	out := make([]parser.ColumnSpec, len(specs))
	for i, s := range specs {
		if pos, ok := positions[s.Key]; ok {
			s.Fallback = pos
		}
		out[i] = s
	}
	return out
}

func (r rowReader) efficiency() model.Efficiency {
	return model.NewEfficiency(r.rawPercent(colPerf), r.rawPercent(colAvail), r.rawPercent(colQuality), r.rawPercent(colOEE))
}

func cncSource(backfill bool) sourceDef[model.CncRow] {
	cols := []parser.ColumnSpec{
		parser.Col(colDate, 0, dateAliases...),
		parser.Col(colMachine, 1, "Makine", "Tezgah", "CNC", "Makine Adı"),
		parser.Col(colOperator, 2, "Operatör", "Personel"),
		parser.Col(colProduced, 3, "Üretim Adedi", "Üretilen", "Üretim", "Adet"),
		parser.Col(colEffective, 8, "Efektif Çalışma Oranı", "Efektif Çalışma", "Etkin Çalışma Oranı"),
	}
	cols = append(cols, withPositions(efficiencyColumns, map[string]int{colPerf: 4, colAvail: 5, colQuality: 6, colOEE: 7})...)
	return sourceDef[model.CncRow]{
		name:    SourceCnc,
		files:   []string{"cnc_verimlilik.xlsx", "CNC Verimlilik.xlsx", "cnc.xlsx"},
		sheets:  []string{"CNC", "Verimlilik", "CNC Verimlilik"},
		columns: cols,
		mapRow: func(r rowReader) (model.CncRow, error) {
			eff := r.efficiency()
			effective := r.percent(colEffective)
			if backfill {
				effective = model.BackfillRatio(effective, eff.Availability)
			}
			rec := model.CncRow{
				Date:                  r.date(colDate),
				Machine:               r.text(colMachine),
				Operator:              r.text(colOperator),
				Produced:              r.count(colProduced),
				Efficiency:            eff,
				EffectiveWorkingRatio: effective,
				RowNo:                 r.row,
			}
			return rec, nonNegative("produced", rec.Produced)
		},
	}
}

func pressSource() sourceDef[model.PressRow] {
	cols := []parser.ColumnSpec{
		parser.Col(colDate, 0, dateAliases...),
		parser.Col(colMachine, 1, "Pres", "Makine", "Hat", "Pres Adı"),
		parser.Col(colProduced, 2, "Üretim Adedi", "Üretilen", "Üretim", "Basılan"),
		parser.Col(colFire, 3, "Fire", "Fire Adedi", "Hurda"),
	}
	cols = append(cols, withPositions(efficiencyColumns, map[string]int{colPerf: 4, colAvail: 5, colQuality: 6, colOEE: 7})...)
	return sourceDef[model.PressRow]{
		name:    SourcePress,
		files:   []string{"pres_oee.xlsx", "Pres OEE.xlsx", "Pres Hattı.xlsx"},
		sheets:  []string{"Pres", "OEE", "Pres OEE"},
		columns: cols,
		mapRow: func(r rowReader) (model.PressRow, error) {
			rec := model.PressRow{
				Date:       r.date(colDate),
				Machine:    r.text(colMachine),
				Produced:   r.count(colProduced),
				Scrap:      r.count(colFire),
				Efficiency: r.efficiency(),
				RowNo:      r.row,
			}
			return rec, nonNegative("produced", rec.Produced)
		},
	}
}

func weldingSource(backfill bool) sourceDef[model.WeldingRow] {
	cols := []parser.ColumnSpec{
		parser.Col(colDate, 0, dateAliases...),
		parser.Col(colMachine, 1, "Robot", "Robot Adı", "Makine", "İstasyon"),
		parser.Col(colOperator, 2, "Operatör", "Personel"),
		parser.Col(colProduced, 3, "Üretim Adedi", "Üretilen", "Kaynak Adedi", "Üretim"),
		parser.Col(colMinutes, 4, "Duruş", "Duruş Süresi", "Duruş (dk)", "Duruş Dakika"),
		parser.Col(colEffective, 9, "Efektif Çalışma Oranı", "Efektif Çalışma", "Etkin Çalışma Oranı"),
	}
	cols = append(cols, withPositions(efficiencyColumns, map[string]int{colPerf: 5, colAvail: 6, colQuality: 7, colOEE: 8})...)
	return sourceDef[model.WeldingRow]{
		name:    SourceWelding,
		files:   []string{"robot_kaynak.xlsx", "Robot Kaynak.xlsx", "kaynak.xlsx"},
		sheets:  []string{"Kaynak", "Robot", "Robot Kaynak"},
		columns: cols,
		mapRow: func(r rowReader) (model.WeldingRow, error) {
			eff := r.efficiency()
			effective := r.percent(colEffective)
			if backfill {
				effective = model.BackfillRatio(effective, eff.Availability)
			}
			rec := model.WeldingRow{
				Date:                  r.date(colDate),
				Machine:               r.text(colMachine),
				Operator:              r.text(colOperator),
				Produced:              r.count(colProduced),
				DowntimeMinutes:       r.minutes(colMinutes),
				Efficiency:            eff,
				EffectiveWorkingRatio: effective,
				RowNo:                 r.row,
			}
			return rec, nonNegative("produced", rec.Produced)
		},
	}
}

func paintSource() sourceDef[model.PaintRow] {
	return sourceDef[model.PaintRow]{
		name:   SourcePaint,
		files:  []string{"boyahane_uretim.xlsx", "Boyahane Üretim.xlsx", "Boyahane.xlsx"},
		sheets: []string{"Boyahane", "Boya", "Üretim"},
		columns: []parser.ColumnSpec{
			parser.Col(colDate, 0, dateAliases...),
			parser.Col(colLine, 1, "Hat", "Boya Hattı", "Hat Adı"),
			parser.Col(colHung, 2, "Askılanan", "Askıya Asılan", "Asılan Parça"),
			parser.Col(colPainted, 3, "Boyanan", "Boyanan Parça", "Çıkan"),
			parser.Col(colRework, 4, "Rötuş", "Tamir", "Tekrar İşlem"),
			parser.Col(colQuality, 5, "Kalite", "Kalite %", "Kalite Oranı"),
		},
		mapRow: func(r rowReader) (model.PaintRow, error) {
			rec := model.PaintRow{
				Date:    r.date(colDate),
				Line:    r.text(colLine),
				Hung:    r.count(colHung),
				Painted: r.count(colPainted),
				Rework:  r.count(colRework),
				Quality: r.percent(colQuality),
				RowNo:   r.row,
			}
			return rec, nonNegative("painted", rec.Painted)
		},
	}
}

func maintenanceSource() sourceDef[model.MaintenanceRow] {
	return sourceDef[model.MaintenanceRow]{
		name:   SourceMaintenance,
		files:  []string{"bakim_ariza.xlsx", "Bakım Arıza.xlsx", "Bakim Ariza.xlsx"},
		sheets: []string{"Arızalar", "Arıza", "Bakım"},
		columns: []parser.ColumnSpec{
			parser.Col(colDate, 0, dateAliases...),
			parser.Col(colMachine, 1, "Makine", "Ekipman", "Makine Adı"),
			parser.Col(colFaultType, 2, "Arıza Tipi", "Arıza Türü", "Arıza", "Arıza Nedeni"),
			parser.Col(colTechnician, 3, "Teknisyen", "Bakımcı", "Sorumlu"),
			parser.Col(colMinutes, 4, "Süre", "Arıza Süresi", "Müdahale Süresi", "Süre (dk)"),
		},
		mapRow: func(r rowReader) (model.MaintenanceRow, error) {
			return model.MaintenanceRow{
				Date:       r.date(colDate),
				Machine:    r.text(colMachine),
				FaultType:  r.text(colFaultType),
				Technician: r.text(colTechnician),
				Minutes:    r.minutes(colMinutes),
				RowNo:      r.row,
			}, nil
		},
	}
}

func scrapSource() sourceDef[model.ScrapRow] {
	return sourceDef[model.ScrapRow]{
		name:   SourceScrap,
		files:  []string{"fire_takip.xlsx", "Fire Takip.xlsx", "fire.xlsx"},
		sheets: []string{"Fire", "Fire Takip", "Hurda"},
		columns: []parser.ColumnSpec{
			parser.Col(colDate, 0, dateAliases...),
			parser.Col(colDepartment, 1, "Bölüm", "Departman"),
			parser.Col(colMaterial, 2, "Malzeme", "Malzeme Adı", "Parça", "Ürün"),
			parser.Col(colReason, 3, "Fire Nedeni", "Neden", "Açıklama"),
			parser.Col(colQuantity, 4, "Miktar", "Adet", "Fire Adedi"),
		},
		mapRow: func(r rowReader) (model.ScrapRow, error) {
			rec := model.ScrapRow{
				Date:       r.date(colDate),
				Department: r.text(colDepartment),
				Material:   r.text(colMaterial),
				Reason:     r.text(colReason),
				Quantity:   r.count(colQuantity),
				RowNo:      r.row,
			}
			return rec, nonNegative("quantity", rec.Quantity)
		},
	}
}

// Production 读取生产跟踪
func (x *Extractor) Production() ([]model.ProductionRow, model.SourceReport) {
	return extract(x, productionSource())
}

// Downtime 读取停机记录
func (x *Extractor) Downtime() ([]model.DowntimeRow, model.SourceReport) {
	return extract(x, downtimeSource())
}

// QualityErrors 读取质量部门缺陷
func (x *Extractor) QualityErrors() ([]model.ErrorRow, model.SourceReport) {
	return extract(x, qualityErrorSource())
}

// PaintErrors 读取涂装缺陷
func (x *Extractor) PaintErrors() ([]model.ErrorRow, model.SourceReport) {
	return extract(x, paintErrorSource())
}

// AssemblyErrors 读取装配缺陷
func (x *Extractor) AssemblyErrors() ([]model.ErrorRow, model.SourceReport) {
	return extract(x, assemblyErrorSource())
}

// Cnc 读取 CNC 效率
func (x *Extractor) Cnc() ([]model.CncRow, model.SourceReport) {
	return extract(x, cncSource(x.backfillEnabled(SourceCnc)))
}

// Press 读取冲压线 OEE
func (x *Extractor) Press() ([]model.PressRow, model.SourceReport) {
	return extract(x, pressSource())
}

// Welding 读取焊接机器人
func (x *Extractor) Welding() ([]model.WeldingRow, model.SourceReport) {
	return extract(x, weldingSource(x.backfillEnabled(SourceWelding)))
}

// Paint 读取涂装车间产量
func (x *Extractor) Paint() ([]model.PaintRow, model.SourceReport) {
	return extract(x, paintSource())
}

// Maintenance 读取维修故障
func (x *Extractor) Maintenance() ([]model.MaintenanceRow, model.SourceReport) {
	return extract(x, maintenanceSource())
}

// Scrap 读取废料记录
func (x *Extractor) Scrap() ([]model.ScrapRow, model.SourceReport) {
	return extract(x, scrapSource())
}
