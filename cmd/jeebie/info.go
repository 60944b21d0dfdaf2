package main

import (
	"errors"
	"fmt"
	"os"
	"runtime"

	"github.com/go-faster/jx"
	"github.com/urfave/cli"
	"golang.org/x/sync/errgroup"

	"github.com/valerio/jeebie-color/jeebie"
	"github.com/valerio/jeebie-color/jeebie/memory"
)

type romInfo struct {
	path     string
	size     int
	header   *memory.Header
	identity string
}

func printInfo(c *cli.Context) error {
	if c.NArg() == 0 {
		return errors.New("no ROM path provided")
	}

	infos := make([]romInfo, c.NArg())
	var g errgroup.Group
	g.SetLimit(runtime.NumCPU())
	for i, path := range c.Args() {
		g.Go(func() error {
			info, err := readInfo(path)
			infos[i] = info
			return err
		})
	}
	if err := g.Wait(); err != nil {
		return err
	}

	var e jx.Encoder
	encodeInfos(&e, infos)
	_, err := os.Stdout.Write(append(e.Bytes(), '\n'))
	return err
}

func readInfo(path string) (romInfo, error) {
	rom, err := memory.ReadROMFile(path)
	if err != nil {
		return romInfo{}, err
	}
	h, err := memory.ParseHeader(rom)
	if err != nil {
		return romInfo{}, fmt.Errorf("%s: %w", path, err)
	}
	return romInfo{
		path:     path,
		size:     len(rom),
		header:   h,
		identity: jeebie.CartridgeIdentity(h, rom),
	}, nil
}

func encodeInfos(e *jx.Encoder, infos []romInfo) {
	e.ArrStart()
	for _, info := range infos {
		encodeInfo(e, info)
	}
	e.ArrEnd()
}

func encodeInfo(e *jx.Encoder, info romInfo) {
	h := info.header
	e.ObjStart()
	e.FieldStart("path")
	e.Str(info.path)
	e.FieldStart("identity")
	e.Str(info.identity)
	e.FieldStart("title")
	e.Str(h.Title)
	if h.ManufacturerCode != "" {
		e.FieldStart("manufacturer")
		e.Str(h.ManufacturerCode)
	}
	e.FieldStart("licensee")
	e.Str(h.Licensee)
	e.FieldStart("cartridge_type")
	e.Str(fmt.Sprintf("0x%02X", h.CartridgeType))
	e.FieldStart("mbc")
	e.Str(h.MBC.String())
	e.FieldStart("rom_size")
	e.Int(h.ROMSize)
	e.FieldStart("file_size")
	e.Int(info.size)
	e.FieldStart("ram_size")
	e.Int(h.RAMSize)
	e.FieldStart("battery")
	e.Bool(h.HasBattery)
	e.FieldStart("rtc")
	e.Bool(h.HasRTC)
	e.FieldStart("cgb")
	switch {
	case h.CGBOnly():
		e.Str("only")
	case h.CGBSupported():
		e.Str("supported")
	default:
		e.Str("none")
	}
	e.FieldStart("version")
	e.Int(int(h.Version))

	e.FieldStart("checksum_errors")
	e.ArrStart()
	for _, err := range h.ChecksumErrors() {
		e.Str(err.Error())
	}
	e.ArrEnd()
	e.ObjEnd()
}
