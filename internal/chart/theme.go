package chart

// Theme is the chart palette.
type Theme struct {
	Background string
	Text       string
	Border     string
	Grid       string
	Up         string
	Down       string
}

// DarkTheme is the palette used on dark pages.
func DarkTheme() Theme {
	return Theme{
		Background: "transparent",
		Text:       "#ffffff",
		Border:     "#374151",
		Grid:       "#374151",
		Up:         "#10b981",
		Down:       "#ef4444",
	}
}

func (t Theme) chartOptions(width, height int) Options {
	return Options{
		Width:  width,
		Height: height,
		Layout: LayoutOptions{
			Background: t.Background,
			TextColor:  t.Text,
		},
		Grid: GridOptions{
			VertLines: t.Grid,
			HorzLines: t.Grid,
		},
		Crosshair:       CrosshairNormal,
		RightPriceScale: ScaleOptions{BorderColor: t.Border},
		TimeScale: TimeScaleOptions{
			BorderColor:    t.Border,
			TimeVisible:    true,
			SecondsVisible: false,
		},
	}
}

func (t Theme) seriesOptions() SeriesOptions {
	return SeriesOptions{
		UpColor:       t.Up,
		DownColor:     t.Down,
		BorderVisible: false,
		WickUpColor:   t.Up,
		WickDownColor: t.Down,
	}
}
