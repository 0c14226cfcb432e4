package main

import (
	_ "embed"

	"fyne.io/fyne/v2"
)

//go:embed assets/icon.svg
var iconSVG []byte

//go:embed assets/icon_ringing.svg
var iconRingingSVG []byte

var (
	resourceIcon        = fyne.NewStaticResource("icon.svg", iconSVG)
	resourceIconRinging = fyne.NewStaticResource("icon_ringing.svg", iconRingingSVG)
)
