// Command grayscale is the standalone converter: point it at one image
// file and it writes the grayscale version next to it. Same pipeline as
// the service, minus the queue and the DB.
package main

import (
	"bufio"
	"context"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/glekoz/grayscale_image/data/storage"
	"github.com/glekoz/grayscale_image/internal/models"
	"github.com/glekoz/grayscale_image/raster"
)

// Distinct exit codes per failure class, scripts rely on them.
const (
	exitNoExtension = 1
	exitNotFound    = 2
	exitUnsupported = 3
	exitBadLength   = 4
)

func main() {
	os.Exit(run(bufio.NewScanner(os.Stdin)))
}

func run(in *bufio.Scanner) int {
	fmt.Print("Please insert the name (including the file extension) of the image file you want to grayscale --> ")
	if !in.Scan() {
		fmt.Fprintln(os.Stderr, "ERROR: no input")
		return exitNoExtension
	}
	fileName := strings.TrimSpace(in.Text())

	ext := strings.ToLower(filepath.Ext(fileName))
	if ext == "" {
		fmt.Fprintln(os.Stderr, "ERROR: File extension not found!")
		return exitNoExtension
	}
	if len(fileName) < storage.MinFilenameLen || len(fileName) > storage.MaxFilenameLen {
		fmt.Fprintln(os.Stderr, "ERROR: Full filename length invalid! (filename must be between 4-255 chars)")
		return exitBadLength
	}
	if !storage.SupportedExtension(ext) {
		fmt.Fprintln(os.Stderr, "ERROR: Unsupported image file format! (Supported formats: .jpg, .png, .bmp, .jpeg, .tiff)")
		return exitUnsupported
	}

	img, err := storage.DecodeFile(fileName)
	if err != nil {
		if errors.Is(err, models.ErrFileNotFound) {
			fmt.Fprintln(os.Stderr, "ERROR: Filename with supported extension not found!")
		} else {
			fmt.Fprintf(os.Stderr, "ERROR: could not read image: %v\n", err)
		}
		return exitNotFound
	}
	fmt.Println("Input image read successfully!")

	src := raster.FromImage(img)
	fmt.Printf("Image width: %dpx, Image height: %dpx\n", src.Cols, src.Rows)

	dst := raster.NewGrayBuffer(src.Rows, src.Cols)
	if err := raster.NewMapper().Map(context.Background(), src, dst); err != nil {
		fmt.Fprintf(os.Stderr, "ERROR: conversion failed: %v\n", err)
		return exitUnsupported
	}
	fmt.Printf("Grayscale of image %s done!\n", fileName)

	fmt.Print("Please name the result grayscaled image --> ")
	var result string
	if in.Scan() {
		result = strings.TrimSpace(in.Text())
	}
	if result == "" || len(result) > storage.MaxFilenameLen-len(ext) {
		fmt.Println("Invalid name, using default filename 'grayscaled_image' instead")
		result = "grayscaled_image"
	}
	outPath := result + ext

	if err := storage.EncodeFile(outPath, dst.Image()); err != nil {
		fmt.Fprintf(os.Stderr, "ERROR: could not save result: %v\n", err)
		return exitNotFound
	}
	fmt.Printf("Saved %s\n", outPath)
	return 0
}
