package model

// Package model defines the domain data shared by the pipeline: acquisition
// jobs and their status machine, extracted media metadata, search results,
// the delivered audio artifact, extraction client profiles and the error
// taxonomy every component reports through.
