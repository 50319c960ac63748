package dfxmlio

import (
	"strings"
	"testing"
	"time"

	"github.com/ajnelson-nist/dfxml/internal/domain"
)

const sampleSnapshot = `<?xml version="1.0" encoding="UTF-8"?>
<dfxml version="1.2.0">
  <volume offset="32256">
    <partition_offset>32256</partition_offset>
    <sector_size>512</sector_size>
    <block_size>4096</block_size>
    <ftype_str>NTFS</ftype_str>
    <fileobject>
      <filename>WINDOWS/system32/config/sam</filename>
      <inode>1024</inode>
      <name_type>r</name_type>
      <alloc>1</alloc>
      <filesize>262144</filesize>
      <mtime>2009-11-17T00:33:30Z</mtime>
      <atime>2009-11-16T23:57:31Z</atime>
      <hashdigest type="md5">0f01ed56a1e32a05e5ef96e4d779f34784af9944</hashdigest>
      <hashdigest type="SHA1">9b4d81d4f8df47c0d601f6cd1b57f7b6b2b5e61b</hashdigest>
    </fileobject>
    <fileobject>
      <filename>WINDOWS/Temp</filename>
      <inode>512</inode>
      <name_type>d</name_type>
      <alloc>1</alloc>
      <filesize>0</filesize>
    </fileobject>
    <fileobject>
      <filename>WINDOWS/Temp/deleted.tmp</filename>
      <inode>2048</inode>
      <name_type>r</name_type>
      <alloc>0</alloc>
      <filesize>16</filesize>
    </fileobject>
    <fileobject>
      <filename>$FAT1</filename>
      <inode>0</inode>
      <alloc>1</alloc>
      <filesize>0</filesize>
    </fileobject>
  </volume>
</dfxml>
`

func loadSample(t *testing.T) *domain.Snapshot {
	t.Helper()
	snapshot, err := NewLoader(nil).Load(strings.NewReader(sampleSnapshot), "sample.xml", 0)
	if err != nil {
		t.Fatalf("Load failed: %v", err)
	}
	return snapshot
}

func TestLoad_VolumeMetadata(t *testing.T) {
	snapshot := loadSample(t)

	if len(snapshot.Volumes) != 1 {
		t.Fatalf("Expected 1 volume, got %d", len(snapshot.Volumes))
	}
	vol := snapshot.Volumes[0]
	if vol.VolumeID != "32256/ntfs" {
		t.Errorf("Expected volume ID 32256/ntfs, got %s", vol.VolumeID)
	}
	if vol.SectorSize != 512 || vol.BlockSize != 4096 || vol.PartitionOffset != 32256 {
		t.Errorf("Unexpected volume geometry: %+v", vol)
	}
}

func TestLoad_FileObjects(t *testing.T) {
	snapshot := loadSample(t)
	vol := snapshot.Volumes[0]

	// $FAT1 is a pseudo-file and must be filtered
	if len(vol.Objects) != 3 {
		t.Fatalf("Expected 3 objects after pseudo-file filtering, got %d", len(vol.Objects))
	}

	sam := vol.Objects[0]
	if sam.PathString() != "WINDOWS/system32/config/sam" {
		t.Errorf("Unexpected path: %s", sam.PathString())
	}
	if sam.StorageAddress != 1024 {
		t.Errorf("Expected inode 1024, got %d", sam.StorageAddress)
	}
	if !sam.Allocated {
		t.Error("Expected sam to be allocated")
	}
	if sam.SizeBytes != 262144 {
		t.Errorf("Expected size 262144, got %d", sam.SizeBytes)
	}
	// Hash algorithm names are normalized to lower case
	if sam.ContentHashes["sha1"] == "" {
		t.Errorf("Expected sha1 digest, got %v", sam.ContentHashes)
	}
	wantMtime := time.Date(2009, 11, 17, 0, 33, 30, 0, time.UTC)
	if !sam.Timestamps[domain.TimeModified].Equal(wantMtime) {
		t.Errorf("Expected mtime %v, got %v", wantMtime, sam.Timestamps[domain.TimeModified])
	}
	if _, ok := sam.Timestamps[domain.TimeCreated]; ok {
		t.Error("crtime was absent in input but present after load")
	}

	if !vol.Objects[1].IsDirectory {
		t.Error("Expected WINDOWS/Temp to be a directory")
	}
	if vol.Objects[2].Allocated {
		t.Error("Expected deleted.tmp to be unallocated")
	}
}

func TestLoad_ExtraIgnoreNames(t *testing.T) {
	loader := NewLoader([]string{"deleted.tmp"})
	snapshot, err := loader.Load(strings.NewReader(sampleSnapshot), "sample.xml", 0)
	if err != nil {
		t.Fatalf("Load failed: %v", err)
	}
	for _, obj := range snapshot.Volumes[0].Objects {
		if obj.Name() == "deleted.tmp" {
			t.Error("Extra ignore name was not filtered")
		}
	}
}

func TestLoad_VolumeWithoutOffset(t *testing.T) {
	doc := `<dfxml><volume><ftype_str>ntfs</ftype_str></volume></dfxml>`
	_, err := NewLoader(nil).Load(strings.NewReader(doc), "bad.xml", 0)
	if err == nil {
		t.Error("Expected error for volume without partition offset")
	}
}

func TestLoad_UnpartitionedFileObjects(t *testing.T) {
	doc := `<dfxml>
  <fileobject>
    <filename>loose/file</filename>
    <inode>7</inode>
    <alloc>1</alloc>
    <filesize>42</filesize>
  </fileobject>
</dfxml>`
	snapshot, err := NewLoader(nil).Load(strings.NewReader(doc), "loose.xml", 0)
	if err != nil {
		t.Fatalf("Load failed: %v", err)
	}
	vol, ok := snapshot.Volume(UnpartitionedVolumeID)
	if !ok {
		t.Fatal("Expected a synthetic unpartitioned volume")
	}
	if len(vol.Objects) != 1 || vol.Objects[0].PathString() != "loose/file" {
		t.Errorf("Unexpected unpartitioned objects: %+v", vol.Objects)
	}
}

func TestLoad_BadTimestamp(t *testing.T) {
	doc := `<dfxml><volume><partition_offset>0</partition_offset>
  <fileobject><filename>f</filename><inode>1</inode><mtime>not-a-time</mtime></fileobject>
</volume></dfxml>`
	_, err := NewLoader(nil).Load(strings.NewReader(doc), "bad.xml", 0)
	if err == nil {
		t.Error("Expected error for malformed timestamp")
	}
}
