package me1

import (
	"archive/zip"
	"bytes"
	"io"

	"github.com/klauspost/compress/flate"
	"github.com/pkg/errors"

	"masseffect-save-edit/memory"
)

// Archive entry names. WorldSavePackage is optional: its absence in the
// container is data, not an error.
const (
	EntryPlayer           = "player.sav"
	EntryState            = "state.sav"
	EntryWorldSavePackage = "WorldSavePackage.sav"
)

// SaveGame is a whole save file: a short leading region, then a deflate
// zip holding the independently encoded sub-records. State and the world
// save package are carried as opaque blobs; only the player record goes
// through the dynamic property codec.
type SaveGame struct {
	Begin      memory.Span // 8 bytes
	ZipOffset  uint32
	NoMansLand memory.Span // ZipOffset-12 bytes
	Player     *Player
	State      []byte
	// WorldSavePackage is nil when the source file had no such entry.
	WorldSavePackage []byte
}

func Decode(raw []byte) (*SaveGame, error) {
	c := memory.NewCursor(raw)

	begin, err := memory.ReadSpan(c, 8)
	if err != nil {
		return nil, errors.Wrap(err, "save header")
	}
	zipOffset, err := memory.ReadInt[uint32](c)
	if err != nil {
		return nil, errors.Wrap(err, "zip offset")
	}
	if int(zipOffset) < c.Position() {
		return nil, errors.Wrapf(ErrContainerFormat, "zip offset %d is inside the header", zipOffset)
	}
	noMansLand, err := memory.ReadSpan(c, int(zipOffset)-c.Position())
	if err != nil {
		return nil, errors.Wrap(err, "no man's land")
	}

	zipData := c.ReadToEnd()
	zr, err := zip.NewReader(bytes.NewReader(zipData), int64(len(zipData)))
	if err != nil {
		return nil, errors.Wrapf(ErrContainerFormat, "open archive: %v", err)
	}
	zr.RegisterDecompressor(zip.Deflate, func(r io.Reader) io.ReadCloser {
		return flate.NewReader(r)
	})

	playerRaw, err := readEntry(zr, EntryPlayer)
	if err != nil {
		return nil, err
	}
	stateRaw, err := readEntry(zr, EntryState)
	if err != nil {
		return nil, err
	}
	worldRaw, err := readOptionalEntry(zr, EntryWorldSavePackage)
	if err != nil {
		return nil, err
	}

	player, err := DecodePlayer(playerRaw)
	if err != nil {
		return nil, errors.Wrap(err, EntryPlayer)
	}

	return &SaveGame{
		Begin:            begin,
		ZipOffset:        zipOffset,
		NoMansLand:       noMansLand,
		Player:           player,
		State:            stateRaw,
		WorldSavePackage: worldRaw,
	}, nil
}

func (s *SaveGame) Encode() ([]byte, error) {
	w := memory.NewWriter()
	s.Begin.Write(w)
	memory.WriteInt(w, s.ZipOffset)
	s.NoMansLand.Write(w)

	zipData, err := s.zip()
	if err != nil {
		return nil, err
	}
	w.WriteBytes(zipData)

	return w.Bytes(), nil
}

func (s *SaveGame) zip() ([]byte, error) {
	var buf bytes.Buffer
	zw := zip.NewWriter(&buf)
	zw.RegisterCompressor(zip.Deflate, func(out io.Writer) (io.WriteCloser, error) {
		return flate.NewWriter(out, flate.DefaultCompression)
	})

	playerData, err := s.Player.Encode()
	if err != nil {
		return nil, errors.Wrap(err, EntryPlayer)
	}
	if err := writeEntry(zw, EntryPlayer, playerData); err != nil {
		return nil, err
	}
	if err := writeEntry(zw, EntryState, s.State); err != nil {
		return nil, err
	}
	if s.WorldSavePackage != nil {
		if err := writeEntry(zw, EntryWorldSavePackage, s.WorldSavePackage); err != nil {
			return nil, err
		}
	}

	if err := zw.Close(); err != nil {
		return nil, errors.Wrapf(ErrContainerFormat, "close archive: %v", err)
	}
	return buf.Bytes(), nil
}

func readEntry(zr *zip.Reader, name string) ([]byte, error) {
	data, err := readOptionalEntry(zr, name)
	if err != nil {
		return nil, err
	}
	if data == nil {
		return nil, errors.Wrap(ErrMissingArchiveEntry, name)
	}
	return data, nil
}

func readOptionalEntry(zr *zip.Reader, name string) ([]byte, error) {
	for _, file := range zr.File {
		if file.Name != name {
			continue
		}
		rc, err := file.Open()
		if err != nil {
			return nil, errors.Wrapf(ErrContainerFormat, "open %s: %v", name, err)
		}
		defer rc.Close()
		data, err := io.ReadAll(rc)
		if err != nil {
			return nil, errors.Wrapf(ErrContainerFormat, "read %s: %v", name, err)
		}
		return data, nil
	}
	return nil, nil
}

func writeEntry(zw *zip.Writer, name string, data []byte) error {
	f, err := zw.Create(name)
	if err != nil {
		return errors.Wrapf(ErrContainerFormat, "create %s: %v", name, err)
	}
	if _, err := f.Write(data); err != nil {
		return errors.Wrapf(ErrContainerFormat, "write %s: %v", name, err)
	}
	return nil
}
